package mcpserver

// TrackerTypesGuide describes how each tracker type interprets values, for
// LLM consumers logging entries through the MCP tools.
const TrackerTypesGuide = `# Daymark Tracker Types

Every tracker has one of four types. The type governs how a logged value is
interpreted and how the per-day status (complete / partial / missed) is
computed.

## checkbox

- Value: ` + "`true`" + ` or ` + "`false`" + `.
- Status: complete when true, missed otherwise.

## counter

- Value: a number (e.g. ` + "`8`" + `, ` + "`2.5`" + `). Units are display-only.
- Status with a target T: complete when value >= T, partial when
  0 < value < T, missed otherwise.

## scale

- Value: a number, usually bounded by the tracker's min/max.
- Status: same numeric rule as counter.

## text

- Value: free text.
- Status: complete when the trimmed text is non-empty, missed otherwise.

## Rules

1. One entry per tracker per date; logging again replaces the value.
2. Dates are ISO ` + "`YYYY-MM-DD`" + ` in US Eastern time. An empty date means
   today.
3. A day with no entry counts as missed in history views. The daily view
   seeds missing entries with the tracker's configured default.
`
