/*
Package scriptbridge runs scripts in an embedded JavaScript engine and hands
their output back as structured records.

A run takes a script body, an optional record of variables and an optional
sequence of input records. The script writes primary output with output(...)
and side-channel records with writeError, writeWarning, writeInformation or
the console object. Output items come back in emission order; error, warning
and information records go to an events.Logger as they arrive and never end
the run.

# Basic Usage

Run to completion and collect every item:

	items, err := scriptbridge.RunScript(ctx, `output('one'); output('two')`)

Stream items while the script is still running:

	seq, err := scriptbridge.RunScriptStreaming(ctx, script,
		scriptbridge.WithVariables(entity.Create("limit", 10)),
		scriptbridge.WithLogger(events.Console(os.Stderr)),
	)
	for item := range seq {
		fmt.Println(item)
	}

Convert every item to an entity:

	records, err := scriptbridge.GetRecordSequence(ctx, script, scriptbridge.WithInput(source))
	for rec, err := range records {
		...
	}

# Host Bindings

	output(...values), writeOutput(...values)   primary output, one item per argument
	writeError(msg), console.error              error records
	writeWarning(msg), console.warn             warning records
	writeInformation(msg), console.log/info     information records
	$input                                      pipeline input: next(), forEach(fn), toArray(), for...of

The script's completion value, unless undefined or null, is emitted as the
last output item. An uncaught exception is logged as an error record.

# Architecture

 1. Value conversion (package native)
    - Snapshots engine values into immutable native objects classified as
    scalar, property bag, map or array
    - Converts native objects to and from entities

 2. Sessions (internal/session)
    - One isolated runtime per script with variables bound as globals
    - Delivery collections for output, error, warning and information records

 3. Streams (internal/stream)
    - Routes the delivery collections to a bounded output queue and a logger
    - Owns the run lifecycle: input feeding, cancellation, disposal

Every run is released on every exit path; ActiveRuns reports the runs that
have not been released yet.
*/
package scriptbridge
