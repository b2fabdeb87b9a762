// Package sink delivers the records and log events of a script run to a
// destination: a JSON-lines stream or a NATS subject.
package sink

import (
	"fmt"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/events"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Envelope types.
const (
	TypeRecord = "record"
	TypeError  = "error"
	TypeLog    = "log"
)

var (
	recordJSON = []byte(`{"type":"record"}`)
	errorJSON  = []byte(`{"type":"error"}`)
	logJSON    = []byte(`{"type":"log"}`)
)

// Envelope is a decoded sink message.
type Envelope struct {
	Type   string
	Run    string
	Seq    int64
	Record entity.Entity
	Error  string
	Log    events.LogEvent
}

// EncodeRecord wraps the seq-th output record of run.
func EncodeRecord(run string, seq int64, rec entity.Entity) ([]byte, error) {
	result, err := stamp(recordJSON, run, seq)
	if err != nil {
		return nil, err
	}
	recBytes, err := rec.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return sjson.SetRawBytes(result, "record", recBytes)
}

// EncodeError wraps the failure to convert the seq-th output item of run.
func EncodeError(run string, seq int64, cause error) ([]byte, error) {
	result, err := stamp(errorJSON, run, seq)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "error", cause.Error())
}

// EncodeLog wraps a log event of run. Log events carry no sequence number.
func EncodeLog(run string, ev events.LogEvent) ([]byte, error) {
	result, err := sjson.SetBytes(logJSON, "run", run)
	if err != nil {
		return nil, err
	}
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log event: %w", err)
	}
	return sjson.SetRawBytes(result, "log", evBytes)
}

func stamp(base []byte, run string, seq int64) ([]byte, error) {
	result, err := sjson.SetBytes(base, "run", run)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "seq", seq)
}

// Decode parses a message produced by one of the Encode functions.
func Decode(data []byte) (Envelope, error) {
	if !gjson.ValidBytes(data) {
		return Envelope{}, fmt.Errorf("invalid json: %s", data)
	}

	env := Envelope{
		Type: gjson.GetBytes(data, "type").String(),
		Run:  gjson.GetBytes(data, "run").String(),
		Seq:  gjson.GetBytes(data, "seq").Int(),
	}
	switch env.Type {
	case TypeRecord:
		rec, err := entity.ParseJSON([]byte(gjson.GetBytes(data, "record").Raw))
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to decode record: %w", err)
		}
		env.Record = rec
	case TypeError:
		env.Error = gjson.GetBytes(data, "error").String()
	case TypeLog:
		if err := json.Unmarshal([]byte(gjson.GetBytes(data, "log").Raw), &env.Log); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode log event: %w", err)
		}
	default:
		return Envelope{}, fmt.Errorf("unknown message type: %q", env.Type)
	}
	return env, nil
}
