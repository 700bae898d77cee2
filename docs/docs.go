// Package docs contiene la especificación OpenAPI servida en /swagger.
// Se regenera con: swag init -g cmd/api/main.go
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
        "/events": {
            "get": {
                "security": [{"BasicAuth": []}],
                "description": "Lista eventos por igualdad. userId es obligatorio; eventType y name son opcionales. Otros parámetros se ignoran. Requiere basic auth.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Listar eventos",
                "parameters": [
                    {"type": "string", "description": "ID de usuario", "name": "userId", "in": "query", "required": true},
                    {"type": "string", "description": "Tipo de evento", "name": "eventType", "in": "query"},
                    {"type": "string", "description": "Nombre del evento", "name": "name", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/events.eventResponse"}}},
                    "400": {"description": "must include userId query parameter", "schema": {"$ref": "#/definitions/events.errorResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "500": {"description": "detalle del error de persistencia", "schema": {"$ref": "#/definitions/events.errorResponse"}}
                }
            },
            "post": {
                "description": "Registra un evento de aplicación. userId, eventType y name son obligatorios; info y data son opcionales.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Registrar evento",
                "parameters": [
                    {"description": "Evento", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/events.createEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/events.eventResponse"}},
                    "400": {"description": "bad request", "schema": {"$ref": "#/definitions/events.messageResponse"}},
                    "500": {"description": "unknown error", "schema": {"$ref": "#/definitions/events.messageResponse"}}
                }
            }
        },
        "/export": {
            "get": {
                "security": [{"BasicAuth": []}],
                "description": "Descarga sincrónica de los eventos en orden de almacenamiento. Filtros opcionales por igualdad.",
                "produces": ["text/csv"],
                "tags": ["export"],
                "summary": "Exportar eventos (CSV)",
                "parameters": [
                    {"type": "string", "description": "ID de usuario", "name": "userId", "in": "query"},
                    {"type": "string", "description": "Tipo de evento", "name": "eventType", "in": "query"},
                    {"type": "string", "description": "Nombre del evento", "name": "name", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "export.csv", "schema": {"type": "file"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/reports.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BasicAuth": []}],
                "description": "Valida el email, crea un job y responde sin esperar a que termine.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "tags": ["export"],
                "summary": "Solicitar reporte por email",
                "parameters": [
                    {"type": "string", "description": "Email del destinatario", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "ID de usuario", "name": "userId", "in": "formData"},
                    {"type": "string", "description": "Tipo de evento", "name": "eventType", "in": "formData"},
                    {"type": "string", "description": "Nombre del evento", "name": "name", "in": "formData"}
                ],
                "responses": {
                    "202": {"description": "html con el id del job", "schema": {"type": "string"}},
                    "400": {"description": "please enter a valid email address", "schema": {"type": "string"}},
                    "503": {"description": "report queue is full", "schema": {"type": "string"}}
                }
            }
        },
        "/export/report": {
            "get": {
                "security": [{"BasicAuth": []}],
                "description": "Página HTML que pide el email al que se enviará el reporte.",
                "produces": ["text/html"],
                "tags": ["export"],
                "summary": "Formulario de reporte",
                "responses": {"200": {"description": "html", "schema": {"type": "string"}}}
            }
        },
        "/export/jobs/{jobID}": {
            "get": {
                "security": [{"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["export"],
                "summary": "Estado de un reporte",
                "parameters": [
                    {"type": "string", "description": "ID del job", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/reports.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/reports.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "events.createEventRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "eventType": {"type": "string"},
                "name": {"type": "string"},
                "info": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "events.eventResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "eventType": {"type": "string"},
                "name": {"type": "string"},
                "info": {"type": "string"},
                "data": {"type": "object"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "events.errorResponse": {"type": "object", "properties": {"error": {"type": "string"}}},
        "events.messageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "events.Filter": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "eventType": {"type": "string"},
                "name": {"type": "string"},
                "limit": {"type": "integer"}
            }
        },
        "reports.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "recipient": {"type": "string"},
                "filter": {"$ref": "#/definitions/events.Filter"},
                "status": {"type": "string", "enum": ["pending", "generating", "archiving", "delivering", "complete", "failed"]},
                "artifactPath": {"type": "string"},
                "archiveUrl": {"type": "string"},
                "rows": {"type": "integer"},
                "error": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "reports.errorResponse": {"type": "object", "properties": {"error": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Reports API",
	Description:      "Ingesta de eventos, listado, export CSV y reportes por email.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
