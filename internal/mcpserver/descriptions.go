package mcpserver

func describeScore() string {
	return `Ranks functions in a codebase by a coverage-weighted, entropy-dampened
technical debt score.

USE WHEN:
- Deciding what to refactor or test next
- Prioritizing a backlog of debt remediation work
- Checking whether a change made the riskiest functions worse

RETURNS:
- items: one entry per function, with its normalized score, priority
  bucket, and recommended tests-needed count
- files: per-file rollups (god-object flags, coupling); duplicate-code
  detection is not part of the result`
}
