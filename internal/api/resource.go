package api

import (
	"strings"

	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/webserver"
)

// Resource names one collection on the REST surface.
type Resource struct {
	Plural   string // route segment and list envelope key, "products"
	Singular string // create envelope key, "product"
	Title    string // message prefix, "Product"
}

func NewResource(plural string) Resource {
	plural = strings.Trim(strings.TrimSpace(plural), "/")
	singular := plural
	switch {
	case strings.HasSuffix(plural, "ies"):
		singular = strings.TrimSuffix(plural, "ies") + "y"
	case strings.HasSuffix(plural, "s"):
		singular = strings.TrimSuffix(plural, "s")
	}
	title := singular
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return Resource{Plural: plural, Singular: singular, Title: title}
}

// Init registers the resource routes for the configured collection.
func Init(ws *webserver.WebServer, cfg *config.AppConfig) {
	registerResourceRoutes(ws, NewResource(cfg.ResourceName()))
}
