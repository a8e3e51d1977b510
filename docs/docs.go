// Package docs publica el documento OpenAPI servido en /swagger.
// Las anotaciones viven en los handlers; regenerar con `swag init -g cmd/api/main.go`.
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
        "/booking": {
            "get": {
                "produces": ["application/json"],
                "tags": ["booking"],
                "summary": "Estado de la reserva en curso",
                "parameters": [
                    {"type": "boolean", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.ReadModelResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/booking/select-pet": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["booking"],
                "summary": "Seleccionar mascota",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/booking.selectPetRequest"}},
                    {"type": "boolean", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.ReadModelResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/booking/select-vet": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["booking"],
                "summary": "Seleccionar veterinario del roster",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/booking.selectVetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.ReadModelResponse"}},
                    "400": {"description": "vet not in roster", "schema": {"$ref": "#/definitions/booking.ErrorResponse"}}
                }
            }
        },
        "/booking/draft": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["booking"],
                "summary": "Editar fecha, hora, motivo y notas",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.ReadModelResponse"}},
                    "400": {"description": "invalid field", "schema": {"$ref": "#/definitions/booking.ErrorResponse"}}
                }
            }
        },
        "/booking/submit": {
            "post": {
                "produces": ["application/json"],
                "tags": ["booking"],
                "summary": "Crear la cita",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/appointments.AppointmentResponse"}},
                    "422": {"description": "validation failed", "schema": {"$ref": "#/definitions/booking.ErrorResponse"}},
                    "502": {"description": "transport error", "schema": {"$ref": "#/definitions/booking.ErrorResponse"}}
                }
            }
        },
        "/desk/appointments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["desk"],
                "summary": "Citas de la clínica del staff",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/appointments.AppointmentResponse"}}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "appointments.AppointmentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "pet_id": {"type": "string"},
                "owner_user_id": {"type": "string"},
                "clinic_id": {"type": "string"},
                "vet_id": {"type": "string"},
                "starts_at": {"type": "string"},
                "reason": {"type": "string"},
                "notes": {"type": "string"},
                "status": {"type": "string", "enum": ["booked", "confirmed", "canceled", "completed"]},
                "allowed_actions": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "booking.selectPetRequest": {
            "type": "object",
            "properties": {"pet_id": {"type": "string"}}
        },
        "booking.selectVetRequest": {
            "type": "object",
            "properties": {"vet_id": {"type": "string"}}
        },
        "booking.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "retryable": {"type": "boolean"}
            }
        },
        "booking.ReadModelResponse": {
            "type": "object",
            "properties": {
                "pets": {"type": "array", "items": {"type": "object"}},
                "selected_pet": {"type": "object"},
                "clinic": {"type": "object"},
                "vets": {"type": "array", "items": {"type": "object"}},
                "draft": {"type": "object"},
                "eligibility": {"type": "object"},
                "submit": {"type": "object"},
                "loading_profile": {"type": "boolean"},
                "loading_roster": {"type": "boolean"},
                "profile_error": {"type": "string"},
                "roster_error": {"type": "string"},
                "pets_error": {"type": "string"},
                "no_registered_clinic": {"type": "boolean"},
                "appointments": {"type": "array", "items": {"$ref": "#/definitions/appointments.AppointmentResponse"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Appointment Scheduling API",
	Description:      "Reserva de turnos veterinarios: resolución pet -> clínica -> roster, eligibility y ciclo de vida de la cita.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
