package api

import (
	"encoding/json"
	"errors"
)

var errEmptyBody = errors.New("empty body")

// DecodeJSON unmarshals body into a T, wrapping failures in *DecodeError.
func DecodeJSON[T any](endpoint string, body []byte) (T, error) {
	var v T
	if len(body) == 0 {
		return v, &DecodeError{Endpoint: endpoint, Err: errEmptyBody}
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, &DecodeError{Endpoint: endpoint, Err: err}
	}
	return v, nil
}

func DecodeStatus(body []byte) (StatusResponse, error) {
	return DecodeJSON[StatusResponse](PathStatus, body)
}

func DecodePerformance(body []byte) (PerformanceResponse, error) {
	return DecodeJSON[PerformanceResponse](PathPerformance, body)
}

func DecodeExposure(body []byte) (ExposureResponse, error) {
	return DecodeJSON[ExposureResponse](PathExposure, body)
}

func DecodePositions(body []byte) ([]Position, error) {
	return DecodeJSON[[]Position](PathPositions, body)
}

func DecodeTrades(body []byte) ([]Trade, error) {
	return DecodeJSON[[]Trade](PathTrades, body)
}

func DecodeArbitrage(body []byte) (ArbitrageResponse, error) {
	return DecodeJSON[ArbitrageResponse](PathArbitrage, body)
}
