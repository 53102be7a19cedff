package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrMuseumNotFound = goerr.New("museum not found")
	ErrNotFound       = goerr.New("not found")
)
