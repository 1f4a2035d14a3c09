// Package docs registra la definición OpenAPI que sirve /swagger/*.
// Se mantiene a mano junto con las anotaciones godoc de los handlers.
package docs

import "github.com/swaggo/swag"

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
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "DebugUser": {"type": "apiKey", "name": "X-Debug-User-ID", "in": "header"}
    },
    "security": [{"Bearer": []}, {"DebugUser": []}],
    "paths": {
        "/species": {
            "get": {
                "tags": ["species"],
                "summary": "Listar especies",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "kingdom", "in": "query", "enum": ["Animalia", "Plantae", "Fungi", "Protista", "Archaea", "Bacteria"]},
                    {"type": "string", "name": "author", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/species.Response"}}},
                    "401": {"description": "unauthorized"}
                }
            },
            "post": {
                "tags": ["species"],
                "summary": "Agregar especie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/species.speciesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/species.Response"}},
                    "400": {"description": "validation failed", "schema": {"$ref": "#/definitions/species.validationResponse"}},
                    "401": {"description": "unauthorized"}
                }
            }
        },
        "/species/{speciesID}": {
            "get": {
                "tags": ["species"],
                "summary": "Ver especie",
                "parameters": [{"type": "integer", "name": "speciesID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/species.Response"}},
                    "404": {"description": "species not found"}
                }
            },
            "put": {
                "tags": ["species"],
                "summary": "Reemplazar especie",
                "parameters": [
                    {"type": "integer", "name": "speciesID", "in": "path", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/species.speciesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/species.Response"}},
                    "400": {"description": "validation failed", "schema": {"$ref": "#/definitions/species.validationResponse"}},
                    "403": {"description": "forbidden"},
                    "404": {"description": "species not found"}
                }
            },
            "delete": {
                "tags": ["species"],
                "summary": "Borrar especie",
                "parameters": [{"type": "integer", "name": "speciesID", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "forbidden"},
                    "404": {"description": "species not found"}
                }
            }
        },
        "/species/{speciesID}/dialog": {
            "post": {
                "tags": ["dialogs"],
                "summary": "Abrir el dialog de detalle",
                "parameters": [{"type": "integer", "name": "speciesID", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "species not found"}
                }
            }
        },
        "/dialogs/{dialogID}": {
            "get": {
                "tags": ["dialogs"],
                "summary": "Render HTML del dialog",
                "produces": ["text/html"],
                "parameters": [{"type": "string", "name": "dialogID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "dialog not found"}}
            },
            "delete": {
                "tags": ["dialogs"],
                "summary": "Cerrar dialog",
                "parameters": [{"type": "string", "name": "dialogID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/dialogs/{dialogID}/state": {
            "get": {
                "tags": ["dialogs"],
                "summary": "Estado del dialog",
                "parameters": [{"type": "string", "name": "dialogID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dialogs/{dialogID}/confirm": {
            "post": {
                "tags": ["dialogs"],
                "summary": "Guardar cambios",
                "parameters": [{"type": "string", "name": "dialogID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "wrong mode or busy"},
                    "422": {"description": "invalid fields"}
                }
            }
        },
        "/dialogs/{dialogID}/delete": {
            "post": {
                "tags": ["dialogs"],
                "summary": "Borrar la especie del dialog",
                "parameters": [
                    {"type": "string", "name": "dialogID", "in": "path", "required": true},
                    {"type": "boolean", "name": "confirm", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "not the author"}}
            }
        },
        "/search": {
            "get": {
                "tags": ["search"],
                "summary": "Buscar en Wikipedia para autocompletar",
                "parameters": [{"type": "string", "name": "q", "in": "query"}],
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "search failed"},
                    "504": {"description": "search timed out"}
                }
            }
        },
        "/profiles/{profileID}": {
            "get": {
                "tags": ["profiles"],
                "summary": "Ver perfil",
                "parameters": [{"type": "string", "name": "profileID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "profile not found"}}
            }
        },
        "/me/profile": {
            "put": {
                "tags": ["profiles"],
                "summary": "Cambiar mi display name",
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid input"}}
            }
        }
    },
    "definitions": {
        "species.Response": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "scientific_name": {"type": "string"},
                "common_name": {"type": "string"},
                "kingdom": {"type": "string"},
                "endangered": {"type": "boolean"},
                "total_population": {"type": "integer"},
                "image": {"type": "string"},
                "description": {"type": "string"},
                "author": {"type": "string"}
            }
        },
        "species.speciesRequest": {
            "type": "object",
            "properties": {
                "scientific_name": {"type": "string"},
                "common_name": {"type": "string"},
                "kingdom": {"type": "string", "enum": ["Animalia", "Plantae", "Fungi", "Protista", "Archaea", "Bacteria"]},
                "endangered": {"type": "boolean"},
                "total_population": {"type": "integer"},
                "image": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "species.validationResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo se puede ajustar en runtime (versión, host).
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Species Catalog API",
	Description:      "Catálogo de especies con dialog de detalle, edición y autocompletado desde Wikipedia.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
