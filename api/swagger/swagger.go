package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Late-Arrival API",
        "description": "Late-arrival tables, charts and exports for the HOD and Principal dashboards",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "LateArrivals", "description": "Filtered late-arrival records and aggregates"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "parameters": {
        "mode": {"name": "mode", "in": "query", "type": "string", "enum": ["today", "specific_date", "weekly", "monthly", "date_range", "all"], "default": "today"},
        "date": {"name": "date", "in": "query", "type": "string", "format": "date", "description": "Calendar day for specific_date"},
        "start_date": {"name": "start_date", "in": "query", "type": "string", "format": "date"},
        "end_date": {"name": "end_date", "in": "query", "type": "string", "format": "date", "description": "Inclusive through the end of the day"},
        "department": {"name": "department", "in": "query", "type": "string", "description": "Department or All. Ignored for HOD tokens"},
        "batch": {"name": "batch", "in": "query", "type": "string", "description": "Batch label or All"},
        "level": {"name": "level", "in": "query", "type": "string", "enum": ["UG", "PG", "UNKNOWN", "All"]}
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/late-arrivals": {
            "get": {
                "tags": ["LateArrivals"],
                "summary": "List filtered late arrivals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/mode"},
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/start_date"},
                    {"$ref": "#/parameters/end_date"},
                    {"$ref": "#/parameters/department"},
                    {"$ref": "#/parameters/batch"},
                    {"$ref": "#/parameters/level"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Late-arrival service unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Late-arrival service timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/late-arrivals/summary": {
            "get": {
                "tags": ["LateArrivals"],
                "summary": "Aggregate filtered late arrivals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/mode"},
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/start_date"},
                    {"$ref": "#/parameters/end_date"},
                    {"$ref": "#/parameters/department"},
                    {"$ref": "#/parameters/batch"},
                    {"$ref": "#/parameters/level"},
                    {"name": "view", "in": "query", "type": "string", "enum": ["per_student_latest", "per_student_count", "per_day_trailing7", "top_offenders", "per_group_count"]},
                    {"name": "top", "in": "query", "type": "integer", "minimum": 1, "maximum": 100},
                    {"name": "group_by", "in": "query", "type": "string", "enum": ["department", "batch", "level"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/late-arrivals/dashboard": {
            "get": {
                "tags": ["LateArrivals"],
                "summary": "Dashboard table, trailing seven day chart, top offenders and totals",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/mode"},
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/start_date"},
                    {"$ref": "#/parameters/end_date"},
                    {"$ref": "#/parameters/department"},
                    {"$ref": "#/parameters/batch"},
                    {"$ref": "#/parameters/level"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/late-arrivals/options": {
            "get": {
                "tags": ["LateArrivals"],
                "summary": "Distinct departments, batches and levels",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/late-arrivals/export": {
            "get": {
                "tags": ["LateArrivals"],
                "summary": "Download the dashboard table",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"$ref": "#/parameters/mode"},
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/start_date"},
                    {"$ref": "#/parameters/end_date"},
                    {"$ref": "#/parameters/department"},
                    {"$ref": "#/parameters/batch"},
                    {"$ref": "#/parameters/level"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "429": {"description": "Too many exports", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/late-arrivals/cache": {
            "delete": {
                "tags": ["LateArrivals"],
                "summary": "Clear cached record sets (Principal only)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Cleared"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
