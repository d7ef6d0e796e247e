// Package docs registers the swagger document served at /swagger/*.
// Regenerate with `swag init -g cmd/server/main.go`.
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user or shop owner", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/model.User"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login user", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh access token", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.RefreshRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout user", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.RefreshRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}}}}},
        "/auth/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user's profile", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}}}}},
        "/auth/forgot-password": {"post": {"tags": ["auth"], "summary": "Request a password reset token", "responses": {"200": {"description": "OK"}}}},
        "/auth/reset-password": {"post": {"tags": ["auth"], "summary": "Reset a password with a reset token", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/markets": {
            "get": {"tags": ["markets"], "summary": "List markets", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Market"}}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["markets"], "summary": "Create a market", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Market"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}
        },
        "/markets/{id}": {"get": {"tags": ["markets"], "summary": "Get a market", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Market"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/products": {
            "get": {"tags": ["products"], "summary": "List products", "parameters": [{"type": "string", "name": "market_id", "in": "query"}, {"type": "string", "name": "category", "in": "query"}, {"type": "string", "name": "q", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Create a product", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}
        },
        "/products/bulk": {"post": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Import the caller's prices for many products", "responses": {"200": {"description": "OK"}}}},
        "/products/{id}": {"get": {"tags": ["products"], "summary": "Get a product with its price history", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/products/{id}/prices": {"post": {"security": [{"BearerAuth": []}], "tags": ["products"], "summary": "Record the caller's own price for a product", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/reports": {"post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Submit a price report", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/reports/myreports": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "The caller's reports, newest first", "responses": {"200": {"description": "OK"}}}},
        "/reports/pending": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Reports awaiting verification", "responses": {"200": {"description": "OK"}}}},
        "/reports/public": {"get": {"tags": ["reports"], "summary": "Recently approved reports", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/reports/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Get a report", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Reject and delete a pending report", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}
        },
        "/reports/{id}/approve": {"put": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Approve a pending report", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/shops/{id}": {"get": {"tags": ["shops"], "summary": "A shop's products at that shop's latest price", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/users": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}}}},
        "/users/shop-owners/bulk": {"post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create many shop owners", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user by id", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update a user", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Delete a user", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "errors.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "error": {"type": "string"}}},
        "handler.MessageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "handler.RegisterRequest": {"type": "object", "required": ["email", "name", "password"], "properties": {"email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string", "minLength": 8}, "role": {"type": "string", "enum": ["User", "ShopOwner"]}, "shop_name": {"type": "string"}, "market_id": {"type": "string"}}},
        "handler.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "handler.RefreshRequest": {"type": "object", "required": ["refresh_token"], "properties": {"refresh_token": {"type": "string"}}},
        "handler.AuthResponse": {"type": "object", "properties": {"access_token": {"type": "string"}, "refresh_token": {"type": "string"}, "user": {"$ref": "#/definitions/model.User"}}},
        "model.Market": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "location": {"type": "string"}, "description": {"type": "string"}, "lat": {"type": "number"}, "lng": {"type": "number"}}},
        "model.User": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string", "enum": ["User", "ShopOwner", "Admin"]}, "shop_name": {"type": "string"}, "market_id": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Pricewatch API",
	Description:      "Community price reports, verification and per-market price aggregation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
