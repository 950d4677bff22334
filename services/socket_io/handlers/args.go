package handlers

import (
	"encoding/json"
	"errors"
)

// bindArg converts one socket.io argument (an already-decoded JSON value)
// into a typed struct via a marshal round-trip.
func bindArg(arg interface{}, out interface{}) error {
	data, err := json.Marshal(arg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func stringArg(args []interface{}, i int) (string, error) {
	if len(args) <= i {
		return "", errors.New("missing argument")
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", errors.New("argument must be a non-empty string")
	}
	return s, nil
}
