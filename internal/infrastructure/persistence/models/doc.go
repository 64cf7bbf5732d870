// Package models contains GORM persistence models that map to database
// tables. They are kept separate from the domain entities so the domain
// layer stays free of ORM tags; each model carries ToDomain/FromDomain
// mappers.
package models
