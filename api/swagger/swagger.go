package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Gate Violation API",
        "description": "Records gate events from the vision pipeline and serves the staff dashboard.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Vision", "description": "Endpoints called by the camera pipeline"},
        {"name": "Authentication", "description": "Staff login"},
        {"name": "Dashboard", "description": "Monitoring overview and statistics"},
        {"name": "Violations", "description": "Gate event listing and exports"},
        {"name": "Students", "description": "Student and card administration"},
        {"name": "Settings", "description": "System settings"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is unavailable"}}
            }
        },
        "/api/violations": {
            "post": {
                "tags": ["Vision"],
                "summary": "Record a gate event",
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded", "application/json"],
                "parameters": [
                    {"name": "card_code", "in": "formData", "required": true, "type": "string"},
                    {"name": "has_plate", "in": "formData", "required": true, "type": "string", "description": "true, 1, on or yes"},
                    {"name": "is_violation", "in": "formData", "required": true, "type": "string", "description": "true, 1, on or yes"},
                    {"name": "timestamp", "in": "formData", "type": "string"},
                    {"name": "student_id", "in": "formData", "type": "integer"},
                    {"name": "student_name", "in": "formData", "type": "string"},
                    {"name": "student_class", "in": "formData", "type": "string"},
                    {"name": "student_age", "in": "formData", "type": "number"},
                    {"name": "license_plate_number", "in": "formData", "type": "string"},
                    {"name": "processing_time_seconds", "in": "formData", "type": "number"},
                    {"name": "note", "in": "formData", "type": "string"},
                    {"name": "image", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ViolationCreated"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/VisionValidationError"}},
                    "500": {"description": "Persistence failure", "schema": {"$ref": "#/definitions/VisionError"}}
                }
            }
        },
        "/api/check": {
            "post": {
                "tags": ["Vision"],
                "summary": "Check a scanned code",
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "card_code", "in": "formData", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Known student", "schema": {"$ref": "#/definitions/CheckResponse"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/VisionError"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/VisionValidationError"}}
                }
            }
        },
        "/api/students/{card_code}": {
            "get": {
                "tags": ["Vision"],
                "summary": "Look up a student by card or student code",
                "parameters": [
                    {"name": "card_code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentLookup"}},
                    "404": {"description": "Unknown code"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate staff user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Gate monitoring dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/statistics": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Detection statistics",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/violations": {
            "get": {
                "tags": ["Violations"],
                "summary": "List gate events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "result", "in": "query", "type": "string", "enum": ["valid", "violation"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/violations/export/pdf": {
            "get": {
                "tags": ["Violations"],
                "summary": "Export violations as PDF",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "PDF document", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/violations/export/csv": {
            "get": {
                "tags": ["Violations"],
                "summary": "Export violations as CSV",
                "produces": ["text/csv"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "CSV document", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "class_name", "in": "query", "type": "string"},
                    {"name": "scenario_group", "in": "query", "type": "string", "enum": ["A", "B", "C"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student with cards",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/students/{id}/cards": {
            "get": {
                "tags": ["Students"],
                "summary": "List cards",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Issue card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IssueCardRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/cards/{id}": {
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate card",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/api/v1/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "List settings",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/settings/{key}": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get setting",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Create or replace setting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertSettingRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "StudentBrief": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "full_name": {"type": "string"},
                "class_name": {"type": "string"},
                "age": {"type": "integer", "x-nullable": true}
            }
        },
        "ViolationCreated": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "message": {"type": "string"},
                "access_log_id": {"type": "integer"},
                "result": {"type": "string", "enum": ["valid", "violation"]},
                "student": {"$ref": "#/definitions/StudentBrief"}
            }
        },
        "CheckStudent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "card_code": {"type": "string"},
                "full_name": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "dob": {"type": "string"},
                "class_name": {"type": "string"},
                "class": {"type": "string"},
                "student_code": {"type": "string"},
                "gender": {"type": "string"},
                "age": {"type": "integer"},
                "age_years": {"type": "integer"},
                "is_under_16": {"type": "boolean"}
            }
        },
        "CheckResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "student": {"$ref": "#/definitions/CheckStudent"}
            }
        },
        "StudentLookup": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "card_code": {"type": "string"},
                "full_name": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "dob": {"type": "string"},
                "class_name": {"type": "string"},
                "class": {"type": "string"},
                "lop": {"type": "string"},
                "student_code": {"type": "string"},
                "gender": {"type": "string"},
                "age": {"type": "integer"}
            }
        },
        "VisionError": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "error"},
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "VisionValidationError": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "error"},
                "message": {"type": "string", "example": "Validation failed"},
                "errors": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "student_code": {"type": "string"},
                "full_name": {"type": "string"},
                "class_name": {"type": "string"},
                "birth_date": {"type": "string", "format": "date"},
                "gender": {"type": "string", "enum": ["Nam", "Nữ", "Khác", "male", "female", "other"]},
                "contact_phone": {"type": "string"},
                "guardian_name": {"type": "string"},
                "guardian_phone": {"type": "string"},
                "notes": {"type": "string"},
                "scenario_group": {"type": "string", "enum": ["A", "B", "C"]},
                "enrolled_at": {"type": "string", "format": "date"}
            },
            "required": ["student_code", "full_name", "birth_date"]
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "class_name": {"type": "string"},
                "birth_date": {"type": "string", "format": "date"},
                "gender": {"type": "string"},
                "contact_phone": {"type": "string"},
                "guardian_name": {"type": "string"},
                "guardian_phone": {"type": "string"},
                "notes": {"type": "string"},
                "scenario_group": {"type": "string", "enum": ["A", "B", "C"]}
            }
        },
        "IssueCardRequest": {
            "type": "object",
            "properties": {
                "card_code": {"type": "string"},
                "card_type": {"type": "string", "enum": ["RFID", "QR"]},
                "expires_at": {"type": "string", "format": "date"}
            },
            "required": ["card_code"]
        },
        "UpsertSettingRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "description": {"type": "string"},
                "value": {"type": "object"}
            },
            "required": ["value"]
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
                "status": {"type": "integer"},
                "fields": {"type": "object"}
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
