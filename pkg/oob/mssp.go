package oob

import "sort"

// EncodeMSSP builds an MSSP telnet subnegotiation sequence from key-value pairs.
// Format: IAC SB 70 VAR "key" VAL "value" ... IAC SE
// Keys are emitted in sorted order.
func EncodeMSSP(data map[string]string) []byte {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload []byte
	for _, k := range keys {
		payload = append(payload, MSSPVar)
		payload = append(payload, k...)
		payload = append(payload, MSSPVal)
		payload = append(payload, data[k]...)
	}
	return Subneg(TeloptMSSP, payload)
}
