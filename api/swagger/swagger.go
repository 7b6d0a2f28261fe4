package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tahfiz API",
        "description": "Curriculum progress and assessment engine for Quran schools",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Progress", "description": "Memorization position tracking"},
        {"name": "Exams", "description": "Exam batches and class rankings"},
        {"name": "Calendar", "description": "Instructional day resolution"},
        {"name": "Attendance", "description": "Daily attendance"},
        {"name": "Curriculum", "description": "Surah reference table"},
        {"name": "Auth", "description": "Authentication"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/sessions": {
            "post": {
                "tags": ["Progress"],
                "summary": "Record a recitation session",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/api/v1/students/{id}/position": {
            "get": {
                "tags": ["Progress"],
                "summary": "Current position per track",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/students/{id}/history": {
            "get": {
                "tags": ["Progress"],
                "summary": "Session history, most recent first",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/exams/batches": {
            "post": {
                "tags": ["Exams"],
                "summary": "Record an exam batch atomically",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error, nothing persisted"}
                }
            },
            "put": {
                "tags": ["Exams"],
                "summary": "Edit batch identity fields",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Exams"],
                "summary": "Delete an exam batch",
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/v1/exams/entries/{id}": {
            "patch": {
                "tags": ["Exams"],
                "summary": "Edit one exam entry",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Exams"],
                "summary": "Delete one exam entry",
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/api/v1/classes/{id}/performance": {
            "get": {
                "tags": ["Exams"],
                "summary": "Per-entry performance projection",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/classes/{id}/ranking": {
            "get": {
                "tags": ["Exams"],
                "summary": "Tie-aware class ranking",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/classes/{id}/ranking/export": {
            "get": {
                "tags": ["Exams"],
                "summary": "Download ranking as CSV or PDF",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/classes/{id}/ranking/export-link": {
            "get": {
                "tags": ["Exams"],
                "summary": "Create a signed download link for the ranking",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Download an archived export by signed token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/api/v1/classes/{id}/school-day": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Resolve an instructional day",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/api/v1/curriculum/units": {
            "get": {
                "tags": ["Curriculum"],
                "summary": "List curriculum units",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Tahfiz API",
	Description:      "Curriculum progress and assessment engine for Quran schools",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
