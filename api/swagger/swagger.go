package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TutorPay API",
        "description": "Teacher compensation reconciliation and payout service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Salaries", "description": "Payroll reconciliation and finalization"},
        {"name": "Waivers", "description": "Deduction waiver administration"},
        {"name": "Exports", "description": "Async payroll exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/salaries": {
            "get": {
                "tags": ["Salaries"],
                "summary": "Computed compensation for every active teacher in a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "period", "in": "query", "type": "string", "required": true, "description": "YYYY-MM"},
                    {"name": "teacherId", "in": "query", "type": "string", "description": "Restrict to one teacher"},
                    {"name": "refresh", "in": "query", "type": "boolean", "description": "Bypass the cached result"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid period"}
                }
            }
        },
        "/salaries/{teacherId}": {
            "get": {
                "tags": ["Salaries"],
                "summary": "Compensation detail with the full per-day breakdown",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacherId", "in": "path", "type": "string", "required": true},
                    {"name": "period", "in": "query", "type": "string", "required": true, "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Teacher not found"}
                }
            }
        },
        "/salaries/{teacherId}/status": {
            "put": {
                "tags": ["Salaries"],
                "summary": "Finalize a teacher salary, optionally disbursing the payout",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacherId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSalaryStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "Salary already marked paid"},
                    "502": {"description": "Payout submission rejected"}
                }
            }
        },
        "/waivers": {
            "get": {
                "tags": ["Waivers"],
                "summary": "Waivers for a teacher within a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string", "required": true},
                    {"name": "period", "in": "query", "type": "string", "required": true, "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Waivers"],
                "summary": "Register a waiver cancelling one deduction instance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWaiverRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/waivers/{id}": {
            "delete": {
                "tags": ["Waivers"],
                "summary": "Remove a waiver",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Waiver not found"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a payroll export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status and download link when finished",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported payroll file via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "UpdateSalaryStatusRequest": {
            "type": "object",
            "required": ["period", "status"],
            "properties": {
                "period": {"type": "string", "example": "2026-03"},
                "status": {"type": "string", "enum": ["UNPAID", "PAID"]},
                "total_salary": {"type": "string", "example": "2600"},
                "base_salary": {"type": "string"},
                "lateness_deduction": {"type": "string"},
                "absence_deduction": {"type": "string"},
                "bonuses": {"type": "string"},
                "process_payment": {"type": "boolean"}
            }
        },
        "CreateWaiverRequest": {
            "type": "object",
            "required": ["teacher_id", "kind", "date", "reason"],
            "properties": {
                "teacher_id": {"type": "string", "format": "uuid"},
                "kind": {"type": "string", "enum": ["LATENESS", "ABSENCE"]},
                "date": {"type": "string", "example": "2026-03-04"},
                "reason": {"type": "string"}
            }
        },
        "CreateExportRequest": {
            "type": "object",
            "required": ["period", "format"],
            "properties": {
                "period": {"type": "string", "example": "2026-03"},
                "teacher_id": {"type": "string", "format": "uuid"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
