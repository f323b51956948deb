package main

// General API documentation for swaggo. The served document is registered by
// internal/httpapi when built with the swagger tag.
//
// @title           gojags API
// @version         1.0
// @description     HTTP API for compiling, adapting and sampling JAGS models in long-lived sessions.
//
// @contact.name   gojags maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
