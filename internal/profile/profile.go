// Package profile defines the generated identity record and the pure
// functions that derive displayable views from a collection of them.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Profile is one generated identity record as returned by the remote source,
// decorated with a locally unique ID.
type Profile struct {
	ID         string   `json:"id"`
	Gender     string   `json:"gender"`
	Name       Name     `json:"name"`
	Location   Location `json:"location"`
	Email      string   `json:"email"`
	Login      Login    `json:"login"`
	DOB        Dated    `json:"dob"`
	Registered Dated    `json:"registered"`
	Phone      string   `json:"phone"`
	Cell       string   `json:"cell"`
	Picture    Picture  `json:"picture"`
	Nat        string   `json:"nat"`
}

// Name is the title/first/last triple.
type Name struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// Location is the postal and geographic location of a profile.
type Location struct {
	Street      Street      `json:"street"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	Postcode    Postcode    `json:"postcode"`
	Coordinates Coordinates `json:"coordinates"`
	Timezone    Timezone    `json:"timezone"`
}

// Street is a numbered street.
type Street struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Coordinates are kept as the decimal strings the API returns.
type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Timezone is an offset such as "+5:30" plus a description.
type Timezone struct {
	Offset      string `json:"offset"`
	Description string `json:"description"`
}

// Login carries the upstream uuid, the identity key of a profile.
type Login struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Password string `json:"password"`
	Salt     string `json:"salt"`
	MD5      string `json:"md5"`
	SHA1     string `json:"sha1"`
	SHA256   string `json:"sha256"`
}

// Dated is an ISO-8601 timestamp with the age computed upstream.
type Dated struct {
	Date string `json:"date"`
	Age  int    `json:"age"`
}

// Picture holds the three image resolutions.
type Picture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

// Postcode is a postal code. The API sends it as a string for some
// nationalities and as a number for others.
type Postcode string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (p *Postcode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Postcode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("postcode: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*p = Postcode(strconv.FormatInt(i, 10))
		return nil
	}
	*p = Postcode(n.String())
	return nil
}

// UUID returns the identity key.
func (p Profile) UUID() string {
	return p.Login.UUID
}

// FullName returns "first last", the key used for name sorting.
func (p Profile) FullName() string {
	return p.Name.First + " " + p.Name.Last
}
