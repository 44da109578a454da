// Package docs registers the OpenAPI description served by the swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{escape .Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/documents": {
            "get": {
                "summary": "List the caller's documents",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["draft", "final", "archived"]},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Create a document from a file upload or a JSON body",
                "consumes": ["multipart/form-data", "application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/documents/{id}": {
            "get": {
                "summary": "Get a document",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "summary": "Partially update a document",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "summary": "Delete a document and its stored file",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/documents/{id}/download": {
            "get": {
                "summary": "Download the stored file",
                "produces": ["application/octet-stream"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/documents/{id}/analyze": {
            "post": {
                "summary": "Re-run AI analysis on a document",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "No content"}, "502": {"description": "Provider failure"}}
            }
        },
        "/generate": {
            "post": {
                "summary": "Generate a new markdown document with AI",
                "responses": {"201": {"description": "Created"}, "502": {"description": "Provider failure"}}
            }
        },
        "/chat": {
            "post": {
                "summary": "Chat with the document assistant",
                "responses": {"200": {"description": "OK"}, "502": {"description": "Provider failure"}}
            }
        },
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DocuMind API",
	Description:      "Document management backend with AI-assisted analysis and generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
