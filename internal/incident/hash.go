package incident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

// DomainIncident separates incident fingerprints from other hashes.
// The version suffix allows a future algorithm change.
const DomainIncident = "objkernel/incident/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes what identifies a failure: class, message, code, site,
// the argument-free trace and the cause chain. ID, seq and the rendered
// text are excluded so repeated occurrences share a fingerprint.
func Fingerprint(inc Incident) (string, error) {
	causes := values.NewArray()
	for _, c := range inc.Causes {
		rec := values.NewArray()
		_ = rec.Set(values.Str("class"), values.Str(c.Class))
		_ = rec.Set(values.Str("message"), values.Str(c.Message))
		_ = rec.Set(values.Str("code"), values.Int(c.Code))
		_ = rec.Set(values.Str("file"), values.Str(c.File))
		_ = rec.Set(values.Str("line"), values.Int(c.Line))
		causes.Append(rec)
	}

	obj := values.NewArray()
	_ = obj.Set(values.Str("class"), values.Str(inc.Class))
	_ = obj.Set(values.Str("message"), values.Str(inc.Message))
	_ = obj.Set(values.Str("code"), values.Int(inc.Code))
	_ = obj.Set(values.Str("file"), values.Str(inc.File))
	_ = obj.Set(values.Str("line"), values.Int(inc.Line))
	_ = obj.Set(values.Str("trace"), trace.ToArray(StripArgs(inc.Trace)))
	_ = obj.Set(values.Str("causes"), causes)

	canonical, err := values.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIncident, canonical), nil
}

// EncodeTrace serializes frames as canonical JSON of trace records.
func EncodeTrace(frames []trace.Frame) (string, error) {
	data, err := values.MarshalCanonical(trace.ToArray(frames))
	if err != nil {
		return "", fmt.Errorf("encode trace: %w", err)
	}
	return string(data), nil
}

// DecodeTrace is the inverse of EncodeTrace.
func DecodeTrace(data string) ([]trace.Frame, error) {
	v, err := values.Unmarshal([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	list, ok := v.(*values.Array)
	if !ok {
		return nil, fmt.Errorf("decode trace: expected array, got %s", values.TypeName(v))
	}
	frames, err := trace.FromArray(list)
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return frames, nil
}
