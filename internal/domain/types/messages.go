package types

// Envelope is the signed, timestamped wrapper carried by the transport.
// Message and Signature are standard base64.
type Envelope struct {
	SenderDID   DID    `json:"sender_did"`
	ReceiverDID DID    `json:"receiver_did"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	Signature   string `json:"signature"`
}

// Response is what the transport returns for an envelope. SessionID is set
// for handshake responses.
type Response struct {
	SessionID SessionID `json:"session_id,omitempty"`
	Response  string    `json:"response"`
}

// Handshake payload type tags.
const (
	PayloadHandshake    = "handshake"
	PayloadHandshakeAck = "handshake_ack"
)

// HandshakePayload is sealed inside the initiator's first message.
type HandshakePayload struct {
	Type      string `json:"type"`
	ClientDID DID    `json:"client_did"`
	Timestamp int64  `json:"timestamp"`
}

// HandshakeAck is sealed inside the responder's handshake response.
type HandshakeAck struct {
	Type      string    `json:"type"`
	SessionID SessionID `json:"session_id"`
	ServerDID DID       `json:"server_did"`
	Timestamp int64     `json:"timestamp"`
}
