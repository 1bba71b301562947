// Package docs registers the gateway's OpenAPI document with swag so
// echo-swagger can serve it under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"tags": ["health"], "summary": "Readiness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/session/login": {
            "post": {"tags": ["session"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}}
        },
        "/session/register": {
            "post": {"tags": ["session"], "summary": "Register", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/session/logout": {
            "post": {"tags": ["session"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}
        },
        "/session/me": {
            "get": {"tags": ["session"], "summary": "Current user", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "put": {"tags": ["session"], "summary": "Update profile", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/register": {
            "post": {"tags": ["registration"], "summary": "Submit registration", "consumes": ["multipart/form-data"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/register/drafts": {
            "post": {"tags": ["registration"], "summary": "Create draft", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"202": {"description": "Accepted"}}}
        },
        "/register/drafts/{id}": {
            "get": {"tags": ["registration"], "summary": "Load draft", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["registration"], "summary": "Update draft", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"202": {"description": "Accepted"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["registration"], "summary": "Discard draft", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/admin/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Admin dashboard", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/performance": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Performance snapshot", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/performance/slow-operations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Slow operations", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/performance/log-summary": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Log summary", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/schedule/generate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Generate schedule", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/schedule/save": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Save schedule", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/schedule/clear": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Clear schedule", "responses": {"204": {"description": "No Content"}}}
        },
        "/admin/schedule/publish": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Publish schedule", "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/schedule/staff-availability": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Staff availability", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/schedule/staff-availability/batch": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Batch staff availability", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/admin/schedule/summary": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Schedule summary", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/schedule/export/pdf": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["schedule"], "summary": "Export schedule", "produces": ["application/pdf"], "responses": {"200": {"description": "OK"}}}
        },
        "/assist/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Assistant dashboard", "responses": {"200": {"description": "OK"}}}
        },
        "/assist/schedule": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Assistant schedule", "responses": {"200": {"description": "OK"}}}
        },
        "/student/courses": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Course catalogue", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Help-desk Rostering Gateway",
	Description:      "Session, registration and rostering routes in front of the help-desk backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
