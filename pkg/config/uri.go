package config

import (
	"fmt"
	"net/url"
	"strconv"
)

// URI is the parsed form of a connection string like
// "tcp://host:port/?pool_size=8", sugar over the separate
// --host/--port/... flags.
type URI struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
	Path     string
	Query    url.Values
}

// ParseURI parses a connection URI into its components.
func ParseURI(uri string) (URI, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return URI{}, fmt.Errorf("parse uri: %w", err)
	}

	var port int
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return URI{}, fmt.Errorf("parse uri port: %w", err)
		}
	}

	password, _ := u.User.Password()

	return URI{
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Port:     port,
		Username: u.User.Username(),
		Password: password,
		Path:     u.Path,
		Query:    u.Query(),
	}, nil
}
