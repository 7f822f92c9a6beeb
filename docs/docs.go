package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "GIS Ticket Agent",
    "description": "Classifies GIS support tickets, assigns priority and drafts replies",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/api/analyze_ticket": {"post": {"tags": ["analysis"], "summary": "Analyze one ticket"}},
    "/api/bulk_analyze": {"post": {"tags": ["analysis"], "summary": "Analyze several tickets"}},
    "/api/process_tickets": {"post": {"tags": ["analysis"], "summary": "Analyze tickets with output options"}},
    "/api/generate_response": {"post": {"tags": ["analysis"], "summary": "Draft a reply for free text"}},
    "/api/import_xml": {"post": {"tags": ["import"], "summary": "Import tickets from XML"}},
    "/api/stats": {"get": {"tags": ["stats"], "summary": "Productivity statistics"}},
    "/api/feedback": {"post": {"tags": ["stats"], "summary": "Rate a suggestion"}}
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
