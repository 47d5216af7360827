// Package docs registers the OpenAPI document served at /swagger.
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
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Account", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Username already exists", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "User login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TokenPair"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["Auth"],
                "summary": "Refresh access token",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AccessTokenResponse"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/movies": {
            "get": {
                "tags": ["Movies"],
                "summary": "List movies",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Movie"}}}
                }
            },
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["Movies"],
                "summary": "Create a movie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Movie", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateMovieRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Movie"}},
                    "409": {"description": "Movie already exists", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/movies/syncronize": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["Movies"],
                "summary": "Synchronize movies",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Movies inserted by this run", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Movie"}}},
                    "409": {"description": "Synchronization already in progress", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Catalog unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "504": {"description": "Catalog timeout", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/movies/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["Movies"],
                "summary": "Get a movie",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Movie ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Movie"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"Bearer": []}],
                "tags": ["Movies"],
                "summary": "Update a movie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Movie ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.UpdateMovieRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Movie"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["Movies"],
                "summary": "Delete a movie",
                "produces": ["text/plain"],
                "parameters": [{"type": "string", "description": "Movie ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Done", "schema": {"type": "string"}},
                    "404": {"description": "Movie not found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/admin/sync": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["Admin"],
                "summary": "Synchronization status",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncStatus"}}
                }
            }
        },
        "/admin/cache/flush": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["Admin"],
                "summary": "Flush cache",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Deleted keys count", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/healthz": {
            "get": {"tags": ["System"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "Healthy"}}}
        },
        "/readyz": {
            "get": {"tags": ["System"], "summary": "Readiness check", "produces": ["application/json"], "responses": {"200": {"description": "Ready"}, "503": {"description": "Not ready"}}}
        },
        "/version": {
            "get": {"tags": ["System"], "summary": "Version information", "produces": ["application/json"], "responses": {"200": {"description": "Version info"}}}
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "integer"},
                "message": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        },
        "models.RegisterRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "username": {"type": "string", "maxLength": 100, "example": "user 1"},
                "password": {"type": "string", "maxLength": 72, "example": "password"},
                "role": {"type": "string", "enum": ["admin", "standard"], "example": "admin"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "example": "admin"},
                "password": {"type": "string", "example": "password"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.TokenPair": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "models.AccessTokenResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"}
            }
        },
        "models.Movie": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "episode_id": {"type": "integer"},
                "opening_crawl": {"type": "string"},
                "director": {"type": "string"},
                "producer": {"type": "string"},
                "release_date": {"type": "string"}
            }
        },
        "models.CreateMovieRequest": {
            "type": "object",
            "required": ["title", "opening_crawl", "director", "producer", "release_date"],
            "properties": {
                "title": {"type": "string", "example": "A New Hope"},
                "episode_id": {"type": "integer", "minimum": 0, "example": 4},
                "opening_crawl": {"type": "string"},
                "director": {"type": "string", "example": "George Lucas"},
                "producer": {"type": "string", "example": "Gary Kurtz, Rick McCallum"},
                "release_date": {"type": "string", "example": "1977-05-25"}
            }
        },
        "models.UpdateMovieRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "episode_id": {"type": "integer", "minimum": 0},
                "opening_crawl": {"type": "string"},
                "director": {"type": "string"},
                "producer": {"type": "string"},
                "release_date": {"type": "string"}
            }
        },
        "models.SyncStatus": {
            "type": "object",
            "properties": {
                "running": {"type": "boolean"},
                "last_trigger": {"type": "string"},
                "last_started_at": {"type": "string"},
                "last_finished_at": {"type": "string"},
                "last_inserted": {"type": "integer"},
                "last_error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Movies API",
	Description:      "Star Wars movie catalog with JWT auth and SWAPI synchronization",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
