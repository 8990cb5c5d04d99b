package types

// CallRecord is the persisted shape of an ended call session.
// DateKey is the partition key, CallID the sort key.
type CallRecord struct {
	DateKey       string  `json:"dateKey" dynamodbav:"DateKey"`
	CallID        string  `json:"callId" dynamodbav:"CallID"`
	Direction     string  `json:"direction" dynamodbav:"Direction"`
	StartTime     string  `json:"startTime" dynamodbav:"StartTime"`
	EndTime       string  `json:"endTime" dynamodbav:"EndTime"`
	DurationSecs  float64 `json:"durationSecs" dynamodbav:"DurationSecs"`
	EndedMuted    bool    `json:"endedMuted" dynamodbav:"EndedMuted"`
	WasRecorded   bool    `json:"wasRecorded" dynamodbav:"WasRecorded"`
	FinalTier     string  `json:"finalTier" dynamodbav:"FinalTier"`
	LatencyMs     float64 `json:"latencyMs" dynamodbav:"LatencyMs"`
	PacketLossPct float64 `json:"packetLossPct" dynamodbav:"PacketLossPct"`
	TransferredTo string  `json:"transferredTo,omitempty" dynamodbav:"TransferredTo"`
}
