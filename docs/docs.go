// Package docs описание API для swagger UI; держать в согласии с аннотациями в cmd/main.go.
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
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/orders": {
            "get": {
                "description": "Newest first, with customer details",
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Order"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Decrements stock and records the customer and the order atomically",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place order",
                "parameters": [
                    {"description": "Order", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.OrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get order by id",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/products": {
            "get": {
                "description": "Newest first",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List products",
                "parameters": [
                    {"type": "string", "description": "Name contains", "name": "q", "in": "query"},
                    {"type": "number", "description": "Min price", "name": "min_price", "in": "query"},
                    {"type": "number", "description": "Max price", "name": "max_price", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Create product",
                "parameters": [
                    {"description": "Product", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.NewProduct"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/products/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Delete product",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.CustomerInfo": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "address": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "domain.LineRequest": {
            "type": "object",
            "required": ["productId"],
            "properties": {
                "productId": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        },
        "domain.NewProduct": {
            "type": "object",
            "required": ["description", "name", "price", "stock"],
            "properties": {
                "description": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "stock": {"type": "integer"}
            }
        },
        "domain.Order": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "customer_address": {"type": "string"},
                "customer_email": {"type": "string"},
                "customer_id": {"type": "string"},
                "customer_name": {"type": "string"},
                "id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.OrderLine"}},
                "status": {"$ref": "#/definitions/domain.OrderStatus"},
                "total": {"type": "number"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.OrderLine": {
            "type": "object",
            "properties": {
                "price": {"type": "number"},
                "product_id": {"type": "string"},
                "product_name": {"type": "string"},
                "quantity": {"type": "integer"},
                "subtotal": {"type": "number"}
            }
        },
        "domain.OrderRequest": {
            "type": "object",
            "required": ["customerInfo", "items"],
            "properties": {
                "customerInfo": {"$ref": "#/definitions/domain.CustomerInfo"},
                "items": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/domain.LineRequest"}}
            }
        },
        "domain.OrderStatus": {
            "type": "string",
            "enum": ["pending"],
            "x-enum-varnames": ["OrderStatusPending"]
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "stock": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Flash Tans API",
	Description:      "Catalog and order placement for the Flash Tans storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
