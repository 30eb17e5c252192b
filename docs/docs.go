// Package docs holds the swagger document served at /swagger. Keep it in
// step with the handler annotations in package endpoint.
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
        "/admin/backfill-uhid": {
            "post": {
                "description": "Assign UHIDs to every patient registered before UHIDs existed",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Backfill UHIDs",
                "responses": {
                    "200": {"description": "UHIDs backfilled", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/admin/sync-counters": {
            "post": {
                "description": "Raise every counter to the highest identifier already stored",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Sync counters",
                "responses": {
                    "200": {"description": "Counters synchronized", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/admin/rate-limit/reset": {
            "post": {
                "description": "Clear the rate limit counter of a client IP on one route",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Reset rate limit",
                "parameters": [
                    {"description": "Client IP and route path", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoint.resetRateLimitRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rate limit reset", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/bill": {
            "get": {
                "description": "Get a paginated list of the clinic's bills",
                "produces": ["application/json"],
                "tags": ["Bill"],
                "summary": "List bills",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID when no bearer token is sent", "name": "X-Clinic-ID", "in": "header"},
                    {"type": "string", "description": "Filter by status (unpaid, paid, cancelled)", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Filter by patient", "name": "patient_id", "in": "query"},
                    {"type": "string", "description": "Search keyword for bill number", "name": "keyword", "in": "query"},
                    {"type": "integer", "description": "Limit number of results", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset for pagination", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Bills retrieved", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "post": {
                "description": "Create a bill with line items for a patient of the resolved clinic and assign its bill number",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Bill"],
                "summary": "Issue a bill",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID when no bearer token is sent", "name": "X-Clinic-ID", "in": "header"},
                    {"description": "Bill information", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoint.createBillRequest"}}
                ],
                "responses": {
                    "200": {"description": "Bill created", "schema": {"allOf": [{"$ref": "#/definitions/util.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Bill"}}}]}},
                    "400": {"description": "Invalid bill", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Patient not found", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/bill/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Bill"],
                "summary": "Get bill",
                "parameters": [
                    {"type": "integer", "description": "Bill ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Bill retrieved", "schema": {"allOf": [{"$ref": "#/definitions/util.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Bill"}}}]}},
                    "404": {"description": "Bill not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/bill/{id}/status": {
            "patch": {
                "description": "Move an unpaid bill to paid or cancelled. Paid and cancelled bills are final.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Bill"],
                "summary": "Update bill status",
                "parameters": [
                    {"type": "integer", "description": "Bill ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoint.updateBillStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Bill updated", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "Invalid status transition", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "409": {"description": "Bill was modified concurrently", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/clinic": {
            "get": {
                "description": "Get a paginated list of clinics with optional keyword search",
                "produces": ["application/json"],
                "tags": ["Clinic"],
                "summary": "List clinics",
                "parameters": [
                    {"type": "integer", "description": "Limit number of results", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset for pagination", "name": "offset", "in": "query"},
                    {"type": "string", "description": "Search keyword for name, hospital ID or city", "name": "keyword", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Clinics retrieved", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "post": {
                "description": "Create a clinic and assign its hospital ID (OC-<INITIALS>-###)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Clinic"],
                "summary": "Register a clinic",
                "parameters": [
                    {"description": "Clinic information", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoint.createClinicRequest"}}
                ],
                "responses": {
                    "200": {"description": "Clinic created", "schema": {"allOf": [{"$ref": "#/definitions/util.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Clinic"}}}]}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/clinic/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Clinic"],
                "summary": "Get clinic",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Clinic retrieved", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Clinic not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "delete": {
                "description": "Soft delete a clinic. Its hospital ID is never reissued.",
                "produces": ["application/json"],
                "tags": ["Clinic"],
                "summary": "Delete clinic",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Clinic deleted", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Clinic not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "patch": {
                "description": "Update clinic details. The hospital ID never changes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Clinic"],
                "summary": "Update clinic",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID", "name": "id", "in": "path", "required": true},
                    {"description": "Updated clinic information", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.UpdateClinicRequest"}}
                ],
                "responses": {
                    "200": {"description": "Clinic updated", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Clinic not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/counter/{type}": {
            "get": {
                "description": "Return the last value issued for a sequence counter without advancing it",
                "produces": ["application/json"],
                "tags": ["Counter"],
                "summary": "Inspect a counter",
                "parameters": [
                    {"type": "string", "description": "Sequence type (hospital_id, patient_uhid, bill)", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "Derived scope such as OC-CGH", "name": "scope", "in": "query"},
                    {"type": "string", "description": "Clinic name to derive the scope from", "name": "name", "in": "query"},
                    {"type": "integer", "description": "Clinic ID for clinic scoped sequences", "name": "clinic_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Counter retrieved", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "Invalid counter key", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Unknown sequence type", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/patient": {
            "get": {
                "description": "Get a paginated list of the clinic's patients with optional filtering",
                "produces": ["application/json"],
                "tags": ["Patient"],
                "summary": "List patients",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID when no bearer token is sent", "name": "X-Clinic-ID", "in": "header"},
                    {"type": "integer", "description": "Limit number of results", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset for pagination", "name": "offset", "in": "query"},
                    {"type": "string", "description": "Search keyword for patient name, UHID, address, or phone", "name": "keyword", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Patients retrieved", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "Clinic could not be resolved", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "post": {
                "description": "Register a patient in the resolved clinic and assign a UHID",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Patient"],
                "summary": "Register a patient",
                "parameters": [
                    {"type": "integer", "description": "Clinic ID when no bearer token is sent", "name": "X-Clinic-ID", "in": "header"},
                    {"description": "Patient information", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoint.createPatientRequest"}}
                ],
                "responses": {
                    "200": {"description": "Patient created", "schema": {"allOf": [{"$ref": "#/definitions/util.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Patient"}}}]}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "409": {"description": "Patient already exists", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/patient/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Patient"],
                "summary": "Get patient information",
                "parameters": [
                    {"type": "integer", "description": "Patient ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Patient retrieved", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Patient not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "delete": {
                "description": "Soft delete a patient. The UHID is never reissued.",
                "produces": ["application/json"],
                "tags": ["Patient"],
                "summary": "Delete a patient",
                "parameters": [
                    {"type": "integer", "description": "Patient ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Patient deleted", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Patient not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            },
            "patch": {
                "description": "Update an existing patient. The UHID cannot be changed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Patient"],
                "summary": "Update patient information",
                "parameters": [
                    {"type": "integer", "description": "Patient ID", "name": "id", "in": "path", "required": true},
                    {"description": "Updated patient information", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.UpdatePatientRequest"}}
                ],
                "responses": {
                    "200": {"description": "Patient updated", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "400": {"description": "UHID cannot be changed", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Patient not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        },
        "/patient/{id}/uhid": {
            "post": {
                "description": "Assign a UHID to a patient that has none. Idempotent: a patient that already has one gets it back unchanged.",
                "produces": ["application/json"],
                "tags": ["Patient"],
                "summary": "Assign a UHID",
                "parameters": [
                    {"type": "integer", "description": "Patient ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "UHID assigned", "schema": {"$ref": "#/definitions/util.APIResponse"}},
                    "404": {"description": "Patient not found", "schema": {"$ref": "#/definitions/util.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "endpoint.billItemRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string", "example": "Consultation"},
                "quantity": {"type": "integer", "example": 1},
                "unit_price": {"type": "integer", "example": 150000}
            }
        },
        "endpoint.createBillRequest": {
            "type": "object",
            "properties": {
                "discount": {"type": "integer", "example": 0},
                "items": {"type": "array", "items": {"$ref": "#/definitions/endpoint.billItemRequest"}},
                "notes": {"type": "string", "example": "Follow-up visit"},
                "patient_id": {"type": "integer", "example": 1},
                "tax_percent": {"type": "number", "example": 11}
            }
        },
        "endpoint.createClinicRequest": {
            "type": "object",
            "properties": {
                "address": {"type": "string", "example": "12 Harbour Road"},
                "city": {"type": "string", "example": "Jakarta"},
                "email": {"type": "string", "example": "contact@cgh.example"},
                "name": {"type": "string", "example": "City General Hospital"},
                "phone": {"type": "string", "example": "081234567890"}
            }
        },
        "endpoint.createPatientRequest": {
            "type": "object",
            "properties": {
                "address": {"type": "string", "example": "123 Main St"},
                "age": {"type": "integer", "example": 30},
                "blood_group": {"type": "string", "example": "O+"},
                "date_of_birth": {"type": "string", "example": "1995-02-14"},
                "email": {"type": "string", "example": "john@example.com"},
                "full_name": {"type": "string", "example": "John Doe"},
                "gender": {"type": "string", "example": "Male"},
                "health_history": {"type": "array", "items": {"type": "string"}, "example": ["Diabetes", "Hypertension"]},
                "phone_number": {"type": "array", "items": {"type": "string"}, "example": ["081234567890"]}
            }
        },
        "endpoint.resetRateLimitRequest": {
            "type": "object",
            "required": ["endpoint", "ip"],
            "properties": {
                "endpoint": {"type": "string", "example": "/patient"},
                "ip": {"type": "string", "example": "192.168.1.100"}
            }
        },
        "endpoint.updateBillStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "paid"}
            }
        },
        "model.Bill": {
            "description": "Bill information",
            "type": "object",
            "properties": {
                "bill_number": {"type": "string", "example": "BILL-000001"},
                "clinic_id": {"type": "integer", "example": 1},
                "discount": {"type": "integer", "example": 0},
                "items": {"type": "array", "items": {"$ref": "#/definitions/model.BillItem"}},
                "notes": {"type": "string", "example": "Follow-up visit"},
                "patient_id": {"type": "integer", "example": 1},
                "status": {"type": "string", "example": "unpaid"},
                "subtotal": {"type": "integer", "example": 150000},
                "tax": {"type": "integer", "example": 16500},
                "tax_percent": {"type": "number", "example": 11},
                "total": {"type": "integer", "example": 166500}
            }
        },
        "model.BillItem": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer", "example": 150000},
                "bill_id": {"type": "integer"},
                "description": {"type": "string", "example": "Consultation"},
                "quantity": {"type": "integer", "example": 1},
                "unit_price": {"type": "integer", "example": 150000}
            }
        },
        "model.Clinic": {
            "description": "Clinic information",
            "type": "object",
            "properties": {
                "active": {"type": "boolean", "example": true},
                "address": {"type": "string", "example": "12 Harbour Road"},
                "city": {"type": "string", "example": "Jakarta"},
                "email": {"type": "string", "example": "contact@cgh.example"},
                "hospital_id": {"type": "string", "example": "OC-CGH-001"},
                "name": {"type": "string", "example": "City General Hospital"},
                "phone": {"type": "string", "example": "081234567890"}
            }
        },
        "model.Patient": {
            "description": "Patient information",
            "type": "object",
            "properties": {
                "address": {"type": "string", "example": "123 Main St"},
                "age": {"type": "integer", "example": 30},
                "blood_group": {"type": "string", "example": "O+"},
                "clinic_id": {"type": "integer", "example": 1},
                "date_of_birth": {"type": "string", "example": "1995-02-14"},
                "email": {"type": "string", "example": "john@example.com"},
                "full_name": {"type": "string", "example": "John Doe"},
                "gender": {"type": "string", "example": "Male"},
                "health_history": {"type": "string", "example": "Diabetes,Hypertension"},
                "phone_number": {"type": "string", "example": "081234567890"},
                "uhid": {"type": "string", "example": "UHID-00001"}
            }
        },
        "model.UpdateClinicRequest": {
            "description": "Clinic update request",
            "type": "object",
            "properties": {
                "active": {"type": "boolean", "example": true},
                "address": {"type": "string", "example": "12 Harbour Road"},
                "city": {"type": "string", "example": "Jakarta"},
                "email": {"type": "string", "example": "contact@cgh.example"},
                "name": {"type": "string", "example": "City General Hospital"},
                "phone": {"type": "string", "example": "081234567890"}
            }
        },
        "model.UpdatePatientRequest": {
            "description": "Patient update request",
            "type": "object",
            "properties": {
                "address": {"type": "string", "example": "123 Main St"},
                "age": {"type": "integer", "example": 31},
                "blood_group": {"type": "string", "example": "O+"},
                "date_of_birth": {"type": "string", "example": "1995-02-14"},
                "email": {"type": "string", "example": "john@example.com"},
                "full_name": {"type": "string", "example": "John Doe"},
                "gender": {"type": "string", "example": "Male"},
                "health_history": {"type": "string", "example": "Diabetes"},
                "phone_number": {"type": "array", "items": {"type": "string"}, "example": ["081234567890"]}
            }
        },
        "util.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "msg": {"type": "string"},
                "success": {"type": "boolean"}
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
	Title:            "Clinic HMS API",
	Description:      "Clinic, patient and billing API with durable identifier allocation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
