package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Escuela Portal API",
    "description": "School administration, teacher and parent portals",
    "version": "1.0.0"
  },
  "basePath": "/",
  "schemes": ["http", "https"],
  "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
  "tags": [
    {"name": "Authentication"},
    {"name": "Courses"},
    {"name": "Subjects"},
    {"name": "Students"},
    {"name": "Teachers"},
    {"name": "Parents"},
    {"name": "Assignments"},
    {"name": "Attendance"},
    {"name": "Grades"},
    {"name": "Portal"}
  ],
  "paths": {
    "/health": {"get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}},
    "/ready": {
      "get": {
        "summary": "Readiness check",
        "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is unavailable"}}
      }
    },
    "/metrics": {"get": {"summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}},
    "/api/v1/auth/login": {
      "post": {
        "tags": ["Authentication"],
        "summary": "Authenticate user",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/LoginRequest"}
          }
        ],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/auth/me": {
      "get": {
        "tags": ["Authentication"],
        "summary": "Current session",
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/courses": {
      "get": {
        "tags": ["Courses"],
        "summary": "List course records",
        "parameters": [
          {"name": "grade", "in": "query", "type": "string"},
          {"name": "section", "in": "query", "type": "string"},
          {"name": "subjectId", "in": "query", "type": "string"},
          {"name": "teacherId", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "post": {
        "tags": ["Courses"],
        "summary": "Create one course record per section",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CourseRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      }
    },
    "/api/v1/courses/grouped": {
      "get": {
        "tags": ["Courses"],
        "summary": "List logical courses",
        "parameters": [
          {"name": "grade", "in": "query", "type": "string"},
          {"name": "subjectId", "in": "query", "type": "string"},
          {"name": "teacherId", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/courses/{id}": {
      "get": {
        "tags": ["Courses"],
        "summary": "Get course record",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Courses"],
        "summary": "Edit a course and reconcile its sibling sections",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CourseRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      },
      "delete": {
        "tags": ["Courses"],
        "summary": "Delete a course record",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"204": {"description": "No Content"}}
      }
    },
    "/api/v1/courses/{id}/assignments": {
      "get": {
        "tags": ["Assignments"],
        "summary": "List course assignments",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "post": {
        "tags": ["Assignments"],
        "summary": "Create assignment and statuses",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      }
    },
    "/api/v1/courses/{id}/assignments/{taskId}": {
      "get": {
        "tags": ["Assignments"],
        "summary": "Get assignment",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {"name": "taskId", "in": "path", "required": true, "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Assignments"],
        "summary": "Edit assignment",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {"name": "taskId", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/UpdateAssignmentRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      }
    },
    "/api/v1/courses/{id}/assignments/{taskId}/statuses": {
      "get": {
        "tags": ["Assignments"],
        "summary": "Grading roster",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {"name": "taskId", "in": "path", "required": true, "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Assignments"],
        "summary": "Save fulfilment and notes",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {"name": "taskId", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/GradeAssignmentRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      }
    },
    "/api/v1/grades/{grade}/subjects": {
      "get": {
        "tags": ["Courses"],
        "summary": "Subjects offered to a grade",
        "parameters": [{"name": "grade", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/subjects": {
      "get": {
        "tags": ["Subjects"],
        "summary": "List subjects",
        "parameters": [{"name": "search", "in": "query", "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "post": {
        "tags": ["Subjects"],
        "summary": "Create subject",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/SubjectRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/subjects/{id}": {
      "get": {
        "tags": ["Subjects"],
        "summary": "Get subject",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Subjects"],
        "summary": "Rename subject",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/SubjectRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "delete": {
        "tags": ["Subjects"],
        "summary": "Delete subject",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"204": {"description": "No Content"}}
      }
    },
    "/api/v1/students": {
      "get": {
        "tags": ["Students"],
        "summary": "List students",
        "parameters": [
          {"name": "grade", "in": "query", "type": "string"},
          {"name": "section", "in": "query", "type": "string"},
          {"name": "courseId", "in": "query", "type": "string"},
          {"name": "search", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "post": {
        "tags": ["Students"],
        "summary": "Enroll student",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateStudentRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/students/{id}": {
      "get": {
        "tags": ["Students"],
        "summary": "Get student",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Students"],
        "summary": "Update enrollment",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateStudentRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "delete": {
        "tags": ["Students"],
        "summary": "Delete student",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"204": {"description": "No Content"}}
      }
    },
    "/api/v1/teachers": {
      "get": {
        "tags": ["Teachers"],
        "summary": "List teachers",
        "parameters": [{"name": "search", "in": "query", "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "post": {
        "tags": ["Teachers"],
        "summary": "Register teacher",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateTeacherRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/teachers/{id}": {
      "get": {
        "tags": ["Teachers"],
        "summary": "Get teacher",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Teachers"],
        "summary": "Update teacher",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "type": "string"},
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateTeacherRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "delete": {
        "tags": ["Teachers"],
        "summary": "Delete teacher",
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"204": {"description": "No Content"}}
      }
    },
    "/api/v1/parents": {
      "post": {
        "tags": ["Parents"],
        "summary": "Register parent",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateParentRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/parents/search": {
      "get": {
        "tags": ["Parents"],
        "summary": "Search parents by name prefix",
        "parameters": [{"name": "q", "in": "query", "type": "string", "required": true}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/parents/typeahead": {
      "get": {
        "tags": ["Parents"],
        "summary": "Parent typeahead websocket",
        "parameters": [{"name": "access_token", "in": "query", "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"101": {"description": "Switching Protocols"}}
      }
    },
    "/api/v1/teacher/courses": {
      "get": {
        "tags": ["Courses"],
        "summary": "Courses of the signed-in teacher",
        "parameters": [{"name": "teacherId", "in": "query", "type": "string"}],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/teacher/courses/live": {
      "get": {
        "tags": ["Courses"],
        "summary": "Live course list websocket",
        "parameters": [
          {"name": "teacherId", "in": "query", "type": "string"},
          {"name": "access_token", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"101": {"description": "Switching Protocols"}}
      }
    },
    "/api/v1/attendance/sheet": {
      "get": {
        "tags": ["Attendance"],
        "summary": "Daily attendance sheet",
        "parameters": [
          {"name": "grade", "in": "query", "type": "string", "required": true},
          {"name": "section", "in": "query", "type": "string", "required": true},
          {"name": "subjectId", "in": "query", "type": "string", "required": true},
          {"name": "date", "in": "query", "type": "string", "required": true}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Attendance"],
        "summary": "Save daily attendance",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/SaveAttendanceRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      }
    },
    "/api/v1/grade-sheets": {
      "get": {
        "tags": ["Grades"],
        "summary": "Trimester grade sheet",
        "parameters": [
          {"name": "grade", "in": "query", "type": "string", "required": true},
          {"name": "section", "in": "query", "type": "string", "required": true},
          {"name": "subjectName", "in": "query", "type": "string", "required": true},
          {"name": "trimester", "in": "query", "type": "string", "required": true}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      },
      "put": {
        "tags": ["Grades"],
        "summary": "Save trimester grades",
        "parameters": [
          {
            "name": "payload",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/SaveGradeSheetRequest"}
          }
        ],
        "security": [{"BearerAuth": []}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
          "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
        }
      }
    },
    "/api/v1/grade-sheets/export": {
      "get": {
        "tags": ["Grades"],
        "summary": "Download a grade report",
        "parameters": [
          {"name": "grade", "in": "query", "type": "string", "required": true},
          {"name": "section", "in": "query", "type": "string", "required": true},
          {"name": "subjectName", "in": "query", "type": "string", "required": true},
          {"name": "trimester", "in": "query", "type": "string", "required": true},
          {"name": "format", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/me/assignments": {
      "get": {
        "tags": ["Portal"],
        "summary": "Assignments of the signed-in student",
        "parameters": [
          {"name": "subject", "in": "query", "type": "string", "required": true},
          {"name": "filter", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/me/attendance": {
      "get": {
        "tags": ["Portal"],
        "summary": "Monthly attendance of the signed-in student",
        "parameters": [
          {"name": "year", "in": "query", "type": "integer"},
          {"name": "month", "in": "query", "type": "integer"},
          {"name": "subject", "in": "query", "type": "string"}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    },
    "/api/v1/me/grades": {
      "get": {
        "tags": ["Portal"],
        "summary": "Trimester grade of the signed-in student",
        "parameters": [
          {"name": "subject", "in": "query", "type": "string", "required": true},
          {"name": "trimester", "in": "query", "type": "string", "required": true}
        ],
        "security": [{"BearerAuth": []}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
      }
    }
  },
  "definitions": {
    "LoginRequest": {
      "type": "object",
      "properties": {
        "email": {"type": "string"},
        "password": {"type": "string"},
        "portal": {"type": "string", "enum": ["administrador", "docente", "estudiante"]}
      },
      "required": ["email", "password"]
    },
    "CourseRequest": {
      "type": "object",
      "properties": {
        "grade": {"type": "string"},
        "subjectId": {"type": "string"},
        "teacherId": {"type": "string"},
        "sections": {"type": "array", "items": {"type": "string", "enum": ["A", "B", "C"]}}
      },
      "required": ["grade", "subjectId", "teacherId", "sections"]
    },
    "SubjectRequest": {"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]},
    "CreateStudentRequest": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "nationalId": {"type": "string"},
        "email": {"type": "string"},
        "password": {"type": "string"},
        "grade": {"type": "string"},
        "section": {"type": "string"},
        "subjectIds": {"type": "array", "items": {"type": "string"}},
        "parentId": {"type": "string"},
        "courseId": {"type": "string"}
      },
      "required": ["name", "nationalId", "email", "grade", "section", "subjectIds", "parentId"]
    },
    "CreateTeacherRequest": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "nationalId": {"type": "string"},
        "email": {"type": "string"},
        "password": {"type": "string"}
      },
      "required": ["name", "nationalId", "email"]
    },
    "CreateParentRequest": {
      "type": "object",
      "properties": {"name": {"type": "string"}, "nationalId": {"type": "string"}},
      "required": ["name", "nationalId"]
    },
    "CreateAssignmentRequest": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "description": {"type": "string"},
        "dueDate": {"type": "string"},
        "subjectId": {"type": "string"},
        "subjectName": {"type": "string"},
        "grade": {"type": "string"},
        "section": {"type": "string"}
      },
      "required": ["title", "description", "dueDate", "subjectId", "grade", "section"]
    },
    "UpdateAssignmentRequest": {
      "type": "object",
      "properties": {"title": {"type": "string"}, "description": {"type": "string"}, "dueDate": {"type": "string"}}
    },
    "GradeAssignmentRequest": {
      "type": "object",
      "properties": {
        "entries": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "studentId": {"type": "string"},
              "studentName": {"type": "string"},
              "fulfilled": {"type": "boolean"},
              "note": {"type": "string"}
            }
          }
        }
      },
      "required": ["entries"]
    },
    "SaveAttendanceRequest": {
      "type": "object",
      "properties": {
        "grade": {"type": "string"},
        "section": {"type": "string"},
        "subjectId": {"type": "string"},
        "subjectName": {"type": "string"},
        "date": {"type": "string"},
        "entries": {"type": "object", "additionalProperties": {"type": "string"}}
      },
      "required": ["grade", "section", "subjectId", "date"]
    },
    "SaveGradeSheetRequest": {
      "type": "object",
      "properties": {
        "grade": {"type": "string"},
        "section": {"type": "string"},
        "subjectName": {"type": "string"},
        "trimester": {"type": "string"},
        "scores": {"type": "object", "additionalProperties": {"type": "string"}}
      },
      "required": ["grade", "section", "subjectName", "trimester", "scores"]
    },
    "APIError": {
      "type": "object",
      "properties": {
        "code": {"type": "string"},
        "message": {"type": "string"},
        "status": {"type": "integer"},
        "details": {"type": "object"}
      }
    },
    "ResponseEnvelope": {
      "type": "object",
      "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "meta": {"type": "object"}}
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
