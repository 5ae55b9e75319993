package schemas

// VerdictEntrySchema describes a single candidate verdict object in the LLM
// response array. Each entry is validated independently so one malformed
// verdict degrades only its own candidate.
const VerdictEntrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["candidate_id", "overall_match_score", "match_summary"],
  "properties": {
    "candidate_id": {
      "type": "string",
      "minLength": 1
    },
    "overall_match_score": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "match_summary": {
      "type": "string"
    },
    "strengths": {
      "type": "array",
      "items": {"type": "string"}
    },
    "gaps": {
      "type": "array",
      "items": {"type": "string"}
    },
    "must_have_confirmed": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    },
    "nice_to_have_confirmed": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    }
  },
  "additionalProperties": true
}`

// ValidateVerdictEntry validates one verdict object from the LLM response.
func ValidateVerdictEntry(jsonContent string) error {
	return ValidateJSONString(VerdictEntrySchema, jsonContent)
}
