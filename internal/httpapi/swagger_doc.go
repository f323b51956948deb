//go:build swagger

package httpapi

import "github.com/swaggo/swag"

// SwaggerInfo holds the API document served at /swagger/doc.json.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "gojags API",
	Description:      "HTTP API for remote MCMC model sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const docTemplate = `{
  "schemes": {{ marshal .Schemes }},
  "swagger": "2.0",
  "info": {
    "description": "{{escape .Description}}",
    "title": "{{.Title}}",
    "version": "{{.Version}}"
  },
  "host": "{{.Host}}",
  "basePath": "{{.BasePath}}",
  "paths": {
    "/sessions": {
      "get": {"tags": ["sessions"], "summary": "List sessions", "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionsResponse"}}}},
      "post": {"tags": ["sessions"], "summary": "Create a session", "consumes": ["application/json"], "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}],
        "responses": {
          "201": {"description": "Created", "schema": {"$ref": "#/definitions/SessionInfo"}},
          "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
    },
    "/sessions/{id}": {
      "get": {"tags": ["sessions"], "summary": "Describe a session",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionInfo"}},
          "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}},
      "delete": {"tags": ["sessions"], "summary": "Delete a session",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
        "responses": {"204": {"description": "No Content"},
          "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
    },
    "/sessions/{id}/update": {
      "post": {"tags": ["sessions"], "summary": "Run iterations",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
          {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRequest"}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/UpdateResponse"}}}}
    },
    "/sessions/{id}/adapt": {
      "post": {"tags": ["sessions"], "summary": "Run adaptation iterations",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
          {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRequest"}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AdaptResponse"}}}}
    },
    "/sessions/{id}/sample": {
      "post": {"tags": ["sessions"], "summary": "Sample monitored variables",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
          {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SampleRequest"}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SampleResponse"}},
          "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
    },
    "/sessions/{id}/state": {
      "get": {"tags": ["sessions"], "summary": "Dump chain state",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/StateResponse"}}}}
    },
    "/sessions/{id}/samplers": {
      "get": {"tags": ["sessions"], "summary": "List samplers",
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SamplersResponse"}}}}
    },
    "/modules": {
      "get": {"tags": ["engine"], "summary": "List loaded modules",
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ModulesResponse"}}}}
    },
    "/modules/available": {
      "get": {"tags": ["engine"], "summary": "List modules found in the modules directory",
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AvailableModulesResponse"}}}}
    },
    "/modules/{name}": {
      "post": {"tags": ["engine"], "summary": "Load a module",
        "parameters": [{"in": "path", "name": "name", "type": "string", "required": true}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ModulesResponse"}}}},
      "delete": {"tags": ["engine"], "summary": "Unload a module",
        "parameters": [{"in": "path", "name": "name", "type": "string", "required": true}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ModulesResponse"}}}}
    },
    "/factories": {
      "get": {"tags": ["engine"], "summary": "List factories",
        "parameters": [{"in": "query", "name": "type", "type": "string"}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/FactoriesResponse"}}}}
    },
    "/factories/{type}/{name}": {
      "put": {"tags": ["engine"], "summary": "Activate or deactivate a factory",
        "parameters": [{"in": "path", "name": "type", "type": "string", "required": true},
          {"in": "path", "name": "name", "type": "string", "required": true},
          {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SetFactoryRequest"}}],
        "responses": {"204": {"description": "No Content"}}}
    },
    "/rngs": {
      "post": {"tags": ["engine"], "summary": "Issue independent RNG states",
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RNGsRequest"}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RNGsResponse"}}}}
    },
    "/status": {
      "get": {"summary": "Manager status",
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/StatusResponse"}}}}
    }
  },
  "definitions": {
    "NamedArrays": {"type": "object", "additionalProperties": {
      "type": "object", "properties": {"shape": {"type": "array", "items": {"type": "integer"}}, "data": {"type": "array", "items": {"type": "number"}}}}},
    "ChainState": {"type": "object", "additionalProperties": true},
    "CreateSessionRequest": {"type": "object", "properties": {
      "model": {"type": "string"}, "data": {"$ref": "#/definitions/NamedArrays"},
      "init": {"type": "array", "items": {"$ref": "#/definitions/ChainState"}},
      "chains": {"type": "integer"}, "tune": {"type": "integer"}}},
    "SessionInfo": {"type": "object", "properties": {
      "id": {"type": "string"}, "state": {"type": "string"}, "chains": {"type": "integer"}, "iter": {"type": "integer"},
      "adapting": {"type": "boolean"}, "variables": {"type": "array", "items": {"type": "string"}},
      "created_unix": {"type": "integer"}, "last_used_unix": {"type": "integer"}}},
    "SessionsResponse": {"type": "object", "properties": {"sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionInfo"}}}},
    "UpdateRequest": {"type": "object", "properties": {"iterations": {"type": "integer"}}},
    "UpdateResponse": {"type": "object", "properties": {"iter": {"type": "integer"}}},
    "AdaptResponse": {"type": "object", "properties": {"adapted": {"type": "boolean"}, "iter": {"type": "integer"}}},
    "SampleRequest": {"type": "object", "properties": {
      "iterations": {"type": "integer"}, "vars": {"type": "array", "items": {"type": "string"}},
      "thin": {"type": "integer"}, "type": {"type": "string"}}},
    "SampleResponse": {"type": "object", "properties": {"iter": {"type": "integer"}, "samples": {"$ref": "#/definitions/NamedArrays"}}},
    "StateResponse": {"type": "object", "properties": {"chains": {"type": "array", "items": {"$ref": "#/definitions/ChainState"}}}},
    "SamplersResponse": {"type": "object", "properties": {"samplers": {"type": "array", "items": {"type": "object", "properties": {
      "method": {"type": "string"}, "nodes": {"type": "array", "items": {"type": "string"}}}}}}},
    "ModulesResponse": {"type": "object", "properties": {"modules": {"type": "array", "items": {"type": "string"}}}},
    "AvailableModulesResponse": {"type": "object", "properties": {"dir": {"type": "string"}, "modules": {"type": "array", "items": {"type": "object", "properties": {
      "name": {"type": "string"}, "path": {"type": "string"}}}}}},
    "FactoriesResponse": {"type": "object", "properties": {"factories": {"type": "array", "items": {"type": "object", "properties": {
      "name": {"type": "string"}, "type": {"type": "string"}, "active": {"type": "boolean"}}}}}},
    "SetFactoryRequest": {"type": "object", "properties": {"active": {"type": "boolean"}}},
    "RNGsRequest": {"type": "object", "properties": {"factory": {"type": "string"}, "chains": {"type": "integer"}}},
    "RNGsResponse": {"type": "object", "properties": {"states": {"type": "array", "items": {"$ref": "#/definitions/ChainState"}}}},
    "StatusResponse": {"type": "object", "additionalProperties": true},
    "ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}}
  }
}`
