// Package schema embeds the JSON Schema document describing an emitted
// training record, used by the Emitter's optional validation pass and by
// tests asserting schema stability.
package schema

// RecordSchema is the JSON Schema (draft-07) for one emitted record.
var RecordSchema = []byte(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "adl-diff-miner record",
  "type": "object",
  "required": ["commit", "intent", "adl_diff", "code_diffs", "context_signals", "metadata"],
  "additionalProperties": true,
  "properties": {
    "commit": {
      "type": "object",
      "required": ["hash", "parent_hash", "authored_at", "committed_at", "author", "committer", "is_merge", "message"],
      "properties": {
        "hash": {"type": "string"},
        "parent_hash": {"type": "string"},
        "authored_at": {"type": "string", "format": "date-time"},
        "committed_at": {"type": "string", "format": "date-time"},
        "author": {"$ref": "#/definitions/person"},
        "committer": {"$ref": "#/definitions/person"},
        "is_merge": {"type": "boolean"},
        "message": {"type": "string"}
      }
    },
    "intent": {
      "type": "object",
      "required": ["message", "source"],
      "properties": {
        "message": {"type": "string"},
        "source": {
          "type": "object",
          "required": ["type"],
          "properties": {"type": {"type": "string"}}
        }
      }
    },
    "adl_diff": {"$ref": "#/definitions/fileChange"},
    "code_diffs": {
      "type": "array",
      "items": {"$ref": "#/definitions/fileChange"}
    },
    "context_signals": {
      "type": "object",
      "required": ["analysis_parent_hash", "analysis_timespan_days", "files_analyzed", "per_file_stats", "aggregate_stats"],
      "properties": {
        "analysis_parent_hash": {"type": "string"},
        "analysis_timespan_days": {"type": "integer"},
        "files_analyzed": {"type": "array", "items": {"type": "string"}},
        "per_file_stats": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["path", "churn_count", "unique_authors", "last_modified_days_ago", "top_authors"],
            "properties": {
              "path": {"type": "string"},
              "churn_count": {"type": "integer"},
              "unique_authors": {"type": "integer"},
              "last_modified_days_ago": {"type": "number"},
              "top_authors": {"type": "array", "items": {"type": "string"}}
            }
          }
        },
        "aggregate_stats": {
          "type": "object",
          "required": ["total_commits", "total_unique_authors", "most_recent_change_days_ago"],
          "properties": {
            "total_commits": {"type": "integer"},
            "total_unique_authors": {"type": "integer"},
            "most_recent_change_days_ago": {"type": "number"}
          }
        }
      }
    },
    "metadata": {
      "type": "object",
      "required": ["dataset_version", "generated_at"],
      "properties": {
        "dataset_version": {"type": "string"},
        "generated_at": {"type": "string", "format": "date-time"}
      }
    }
  },
  "definitions": {
    "person": {
      "type": "object",
      "required": ["name", "email"],
      "properties": {
        "name": {"type": "string"},
        "email": {"type": "string"}
      }
    },
    "hunk": {
      "type": "object",
      "required": ["header", "added", "removed", "context"],
      "properties": {
        "header": {"type": "string"},
        "added": {"type": "array", "items": {"type": "string"}},
        "removed": {"type": "array", "items": {"type": "string"}},
        "context": {"type": "array", "items": {"type": "string"}}
      }
    },
    "fileChange": {
      "type": "object",
      "required": ["path", "status", "extension", "language", "hunks", "stats"],
      "properties": {
        "path": {"type": "string"},
        "previous_path": {"type": "string"},
        "status": {"enum": ["added", "modified", "deleted", "renamed"]},
        "extension": {"type": "string"},
        "language": {"type": ["string", "null"]},
        "hunks": {"type": "array", "items": {"$ref": "#/definitions/hunk"}},
        "stats": {
          "type": "object",
          "required": ["additions", "deletions"],
          "properties": {
            "additions": {"type": "integer"},
            "deletions": {"type": "integer"}
          }
        }
      }
    }
  }
}`)
