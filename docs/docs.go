// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains token, token_type and user", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request or conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/user/create-client": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Register a client account",
                "parameters": [
                    {"description": "Client profile and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.RegisterClientRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the client", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request or conflict (email taken)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/user/host-application": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Apply to become a host",
                "responses": {
                    "201": {"description": "data contains the application", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: conflict (already applied or account inactive)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/host/create-event": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["host"],
                "summary": "Create an event",
                "parameters": [
                    {"description": "Event details; date is RFC 3339", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the event (status PENDING)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/join/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Join an event",
                "description": "Reserves a seat, records a pending participant and payment, and opens a gateway session.",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains paymentUrl, participant, payment and updatedEvent", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "502": {"description": "error.code: upstream_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/leave/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Leave an event",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains participant and updatedEvent", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{id}/participants": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List active participants",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains participants and pagination", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/host/event-complete/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["host"],
                "summary": "Mark an event completed",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the event", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: invalid_transition", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/host/event/{id}/cancel": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["host"],
                "summary": "Cancel a pending event",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the event", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/admin/events/{id}/approve": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Approve a pending event",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the event", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/admin/events/{id}/reject": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reject a pending event",
                "parameters": [{"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the event", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/admin/host-applications/{id}/approve": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Approve a host application",
                "parameters": [{"type": "string", "description": "Host application ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the new host", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: invalid_transition", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/admin/host-applications/{id}/reject": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reject a host application",
                "parameters": [{"type": "string", "description": "Host application ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the application", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: invalid_transition", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/admin/users/{id}/suspend": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Suspend a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the user", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden (target is an admin)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/admin/users/{id}/unsuspend": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reactivate a suspended user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the user", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/reviews/{transactionId}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Review a completed event",
                "parameters": [
                    {"type": "string", "description": "Transaction ID of the paid booking", "name": "transactionId", "in": "path", "required": true},
                    {"description": "Rating 1-5 and optional comment", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateReviewRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains review and host", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/payment/success": {
            "post": {
                "tags": ["payment"],
                "summary": "Gateway success callback",
                "parameters": [
                    {"type": "string", "description": "Transaction ID (aliases: txnId, transaction_id, tran_id)", "name": "transactionId", "in": "query", "required": true},
                    {"type": "string", "description": "Gateway validation id; required when SSL_REQUIRE_VAL_ID is set", "name": "val_id", "in": "query"}
                ],
                "responses": {
                    "303": {"description": "Redirect to FRONTEND_URL/client/dashboard/my-events"},
                    "400": {"description": "val_id missing or not validated by the gateway", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "502": {"description": "error.code: upstream_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/payment/fail": {
            "post": {
                "tags": ["payment"],
                "summary": "Gateway fail callback",
                "parameters": [{"type": "string", "description": "Transaction ID", "name": "transactionId", "in": "query", "required": true}],
                "responses": {"303": {"description": "Redirect to FRONTEND_URL/all-events"}}
            }
        },
        "/payment/cancel": {
            "post": {
                "tags": ["payment"],
                "summary": "Gateway cancel callback",
                "parameters": [{"type": "string", "description": "Transaction ID", "name": "transactionId", "in": "query", "required": true}],
                "responses": {"303": {"description": "Redirect to FRONTEND_URL/all-events"}}
            }
        },
        "/payment/ipn": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Gateway IPN validation",
                "parameters": [
                    {"type": "string", "description": "Gateway validation id", "name": "val_id", "in": "formData", "required": true},
                    {"type": "string", "description": "Transaction ID", "name": "tran_id", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "data contains valid and status", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "502": {"description": "error.code: upstream_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness and database health",
                "responses": {
                    "200": {"description": "data.status: ok", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "data.status: degraded", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.CreateReviewRequest": {
            "type": "object",
            "required": ["rating"],
            "properties": {
                "rating": {"type": "integer", "maximum": 5, "minimum": 1},
                "comment": {"type": "string", "maxLength": 2000}
            }
        },
        "controllers.CreateEventRequest": {
            "type": "object",
            "required": ["title", "capacity", "date"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "capacity": {"type": "integer", "minimum": 0},
                "date": {"type": "string", "format": "date-time"},
                "joining_fee": {"type": "string", "example": "250.00"}
            }
        },
        "controllers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "controllers.RegisterClientRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string", "maxLength": 120},
                "email": {"type": "string"},
                "phone": {"type": "string", "maxLength": 32},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "helpers.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
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
	Title:            "Eventra API",
	Description:      "Event marketplace booking and payment reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
