// Package auth holds the OpenAPI document for the auth service, registered
// with swag so /swagger/ can serve it. Regenerate with
//
//	swag init -g internal/auth/http/router.go -o api/auth
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "AussieBroadWAN Team",
			"url": "https://github.com/aussiebroadwan/taskboard"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/auth/register": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Register",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "email, password, name",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.RegisterRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "message, user, accessToken, refreshToken",
						"schema": {
							"$ref": "#/definitions/authsdk.AuthResponse"
						}
					},
					"400": {
						"description": "Validation failure or email already registered",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Too many requests",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Login",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "email, password",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message, user, accessToken, refreshToken",
						"schema": {
							"$ref": "#/definitions/authsdk.AuthResponse"
						}
					},
					"400": {
						"description": "Missing or malformed fields",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Invalid credentials or deactivated account",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Too many requests",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/refresh": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Refresh",
				"produces": [
					"application/json"
				],
				"description": "Rotates a refresh token. The presented token is spent; replaying it fails with 403.",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "refreshToken",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.RefreshRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "accessToken, refreshToken",
						"schema": {
							"$ref": "#/definitions/authsdk.TokenResponse"
						}
					},
					"401": {
						"description": "Refresh token required",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid refresh token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/logout": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Logout",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "refreshToken",
						"name": "body",
						"in": "body",
						"required": false,
						"schema": {
							"$ref": "#/definitions/authsdk.LogoutRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/logout-all": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Logout everywhere",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "message",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/profile": {
			"get": {
				"tags": [
					"Profile"
				],
				"summary": "Get profile",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "user",
						"schema": {
							"$ref": "#/definitions/authsdk.ProfileResponse"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"Profile"
				],
				"summary": "Update profile",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "name, currentPassword, newPassword",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.UpdateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message, user",
						"schema": {
							"$ref": "#/definitions/authsdk.UserMessageResponse"
						}
					},
					"400": {
						"description": "Validation failure or wrong current password",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/change-email": {
			"post": {
				"tags": [
					"Profile"
				],
				"summary": "Change email",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "newEmail, password",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.ChangeEmailRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message, user",
						"schema": {
							"$ref": "#/definitions/authsdk.UserMessageResponse"
						}
					},
					"400": {
						"description": "Validation failure, wrong password or email in use",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/deactivate": {
			"post": {
				"tags": [
					"Profile"
				],
				"summary": "Deactivate account",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "password",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.DeactivateRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"400": {
						"description": "Missing or wrong password",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/sessions": {
			"get": {
				"tags": [
					"Profile"
				],
				"summary": "Session summary",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "activeSessions, lastLogin",
						"schema": {
							"$ref": "#/definitions/authsdk.SessionsResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/forgot-password": {
			"post": {
				"tags": [
					"Password Reset"
				],
				"summary": "Request password reset",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "email",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.ForgotPasswordRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"400": {
						"description": "Valid email is required",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Too many requests",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/auth/reset-password": {
			"post": {
				"tags": [
					"Password Reset"
				],
				"summary": "Reset password",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "token, newPassword",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.ResetPasswordRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "message",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"400": {
						"description": "Missing fields, weak password or invalid token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "Too many requests",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/users": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "List users",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "users",
						"schema": {
							"$ref": "#/definitions/authsdk.UsersResponse"
						}
					},
					"401": {
						"description": "Missing or expired access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid access token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/health": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Service Health",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, timestamp, uptime, users",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					},
					"500": {
						"description": "Internal server error",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/livez": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Liveness Probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version",
						"schema": {
							"$ref": "#/definitions/authsdk.ProbeResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Readiness Probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version, checks",
						"schema": {
							"$ref": "#/definitions/authsdk.ProbeResponse"
						}
					},
					"503": {
						"description": "status, uptime, version, checks - service not ready",
						"schema": {
							"$ref": "#/definitions/authsdk.ProbeResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"authsdk.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"authsdk.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"authsdk.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"isActive": {
					"type": "boolean"
				},
				"createdAt": {
					"type": "string",
					"format": "date-time"
				},
				"updatedAt": {
					"type": "string",
					"format": "date-time"
				},
				"lastLogin": {
					"type": "string",
					"format": "date-time"
				},
				"deactivatedAt": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"authsdk.RegisterRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"name": {
					"type": "string"
				}
			}
		},
		"authsdk.LoginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.AuthResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/authsdk.User"
				},
				"accessToken": {
					"type": "string"
				},
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"authsdk.RefreshRequest": {
			"type": "object",
			"properties": {
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"authsdk.TokenResponse": {
			"type": "object",
			"properties": {
				"accessToken": {
					"type": "string"
				},
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"authsdk.LogoutRequest": {
			"type": "object",
			"properties": {
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"authsdk.ProfileResponse": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/authsdk.User"
				}
			}
		},
		"authsdk.UpdateProfileRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"currentPassword": {
					"type": "string"
				},
				"newPassword": {
					"type": "string"
				}
			}
		},
		"authsdk.UserMessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/authsdk.User"
				}
			}
		},
		"authsdk.ChangeEmailRequest": {
			"type": "object",
			"properties": {
				"newEmail": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.DeactivateRequest": {
			"type": "object",
			"properties": {
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.SessionsResponse": {
			"type": "object",
			"properties": {
				"activeSessions": {
					"type": "integer"
				},
				"lastLogin": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"authsdk.UsersResponse": {
			"type": "object",
			"properties": {
				"users": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/authsdk.User"
					}
				}
			}
		},
		"authsdk.ForgotPasswordRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				}
			}
		},
		"authsdk.ResetPasswordRequest": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"newPassword": {
					"type": "string"
				}
			}
		},
		"authsdk.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"timestamp": {
					"type": "string",
					"format": "date-time"
				},
				"uptime": {
					"type": "number"
				},
				"users": {
					"type": "integer"
				}
			}
		},
		"authsdk.ProbeChecks": {
			"type": "object",
			"properties": {
				"database": {
					"type": "string"
				}
			}
		},
		"authsdk.ProbeResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"checks": {
					"$ref": "#/definitions/authsdk.ProbeChecks"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Taskboard Authentication Service API",
	Description:      "Account, session and password reset API for the Taskboard frontend.\nAccess tokens live for 15 minutes and refresh tokens for 7 days. Refresh tokens are single use.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
