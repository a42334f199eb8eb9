// Package docs registers the OpenAPI document served by the Swagger UI.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler
// annotations.
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
            "get": {
                "description": "Check if the API is running",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/users/register": {
            "post": {
                "description": "Create an account and return its profile. Failures carry a plain-text code.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new account",
                "parameters": [
                    {
                        "description": "Account details",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.RegisterRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.Profile"}},
                    "400": {"description": "missing_fields, invalid_names, invalid_email, invalid_password or email_taken", "schema": {"type": "string"}},
                    "500": {"description": "internal_error", "schema": {"type": "string"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "description": "Exchange email and password for a bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.LoginResponse"}},
                    "400": {"description": "missing_fields", "schema": {"type": "string"}},
                    "401": {"description": "Unknown account or wrong password"},
                    "500": {"description": "internal_error", "schema": {"type": "string"}}
                }
            }
        },
        "/users/send-reset-password": {
            "post": {
                "description": "Mail a link embedding the account's reset token",
                "consumes": ["application/json"],
                "tags": ["users"],
                "summary": "Request a password reset link",
                "parameters": [
                    {
                        "description": "Email address",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.SendResetPasswordRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "missing_fields or user_not_found", "schema": {"type": "string"}},
                    "500": {"description": "internal_error", "schema": {"type": "string"}}
                }
            }
        },
        "/users/reset-password": {
            "post": {
                "description": "Set a new password using the token from the reset link",
                "consumes": ["application/json"],
                "tags": ["users"],
                "summary": "Reset password",
                "parameters": [
                    {
                        "description": "Reset token and new password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.ResetPasswordRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "missing_fields or invalid_password", "schema": {"type": "string"}},
                    "404": {"description": "Unknown or consumed token"},
                    "500": {"description": "internal_error", "schema": {"type": "string"}}
                }
            }
        },
        "/users/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the profile of the account the bearer token belongs to",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.Profile"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        }
    },
    "definitions": {
        "auth.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "auth.RegisterRequest": {
            "type": "object",
            "required": ["email", "firstName", "lastName", "password"],
            "properties": {
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.ResetPasswordRequest": {
            "type": "object",
            "required": ["guid", "password"],
            "properties": {
                "guid": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.SendResetPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "user.Profile": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "deleted": {"type": "boolean"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "id": {"type": "string"},
                "last_name": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Accounts API",
	Description:      "Registration, login, password reset and current-account lookup.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
