// Package db provides the embedded database schema and the default product
// catalog.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog is the default product catalog served when no catalog file is
// configured.
//
//go:embed seed/products.json
var Catalog []byte
