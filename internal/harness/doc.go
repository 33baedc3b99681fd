// Package harness runs conformance scenarios against the exception kernel.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: chained_failure
//	description: "A caught cause is wrapped and escapes"
//	declarations: decls        # optional CUE directory, relative to the file
//	incident_prefix: inc       # optional, default "incident"
//	steps:
//	  - throw: e1
//	    class: RuntimeException
//	    message: disk full
//	    code: 28
//	    at: { file: /app/io.php, line: 7 }
//	    stack:
//	      - { function: main, file: /app/index.php, line: 3 }
//	      - { function: write, class: Storage, file: /app/index.php, line: 12, args: [a, 3] }
//	    catch: [RuntimeException]
//	    expect: { outcome: caught }
//	  - throw: e2
//	    message: save failed
//	    previous: e1
//	    at: { file: /app/main.php, line: 4 }
//	  - rethrow: e1
//	    at: { file: /app/retry.php, line: 9 }
//	    catch: [LogicException]
//	assertions:
//	  - { type: message, throwable: e2, equals: save failed }
//	  - { type: previous, throwable: e2, previous: e1 }
//	  - { type: chain, throwable: e2, classes: [Exception, RuntimeException] }
//	  - { type: incident_count, count: 2 }
//
// Stack frames are listed outermost first, the order calls are entered.
// A step without catch, or whose catch list does not match, is uncaught and
// produces an incident.
//
// # Assertion Types
//
//   - message: the throwable's message equals a value
//   - code: the throwable's code equals a value
//   - previous: the throwable's previous is the named throwable, or none
//   - chain: class names along the cause chain, newest first
//   - site: file and line of the raise site
//   - trace_string: the rendered trace equals a value
//   - rendered_contains: the string form contains a substring
//   - incident_count: number of stored incidents
//   - diagnostic_contains: some incident diagnostic contains a substring
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, sequential incident IDs and a
// logical clock starting at zero, so identical scenarios produce identical
// snapshots for golden comparison.
package harness
