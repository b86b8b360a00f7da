package n4

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PFCPClient manages PFCP (Packet Forwarding Control Protocol) communication with UPF
// 3GPP TS 29.244 - Interface between Control Plane and User Plane nodes
type PFCPClient struct {
	upfNodeID    string
	upfN4Address string
	logger       *zap.Logger

	// TEID counter for allocating F-TEIDs
	teidCounter uint32
}

// NewPFCPClient creates a new PFCP client
func NewPFCPClient(upfNodeID, upfN4Address string, logger *zap.Logger) *PFCPClient {
	return &PFCPClient{
		upfNodeID:    upfNodeID,
		upfN4Address: upfN4Address,
		logger:       logger,
		teidCounter:  1000, // allocateTEID pre-increments, so the first TEID is 1001
	}
}

// SessionEstablishmentRequest represents PFCP Session Establishment Request
type SessionEstablishmentRequest struct {
	NodeID        string
	SEID          uint64 // Session Endpoint Identifier
	UEIPv4Address string
	DNN           string

	// PDR - Packet Detection Rule
	PDRs []PDR

	// FAR - Forwarding Action Rule
	FARs []FAR

	// QER - QoS Enforcement Rule
	QERs []QER
}

// PDR represents Packet Detection Rule
type PDR struct {
	PDRID              uint16
	Precedence         uint32
	PDI                PDI // Packet Detection Information
	OuterHeaderRemoval bool
	FARID              uint16 // Associated FAR
	QERID              uint16 // Associated QER
}

// PDI represents Packet Detection Information
type PDI struct {
	SourceInterface string // "ACCESS", "CORE"
	FTEID           *FTEID
	UEIPAddress     string
	NetworkInstance string // DNN
}

// FTEID represents Fully Qualified Tunnel Endpoint Identifier
type FTEID struct {
	TEID uint32
	IPv4 string
	IPv6 string
}

// FAR represents Forwarding Action Rule
type FAR struct {
	FARID                uint16
	ApplyAction          string // "FORWARD", "DROP", "BUFFER"
	ForwardingParameters *ForwardingParameters
}

// ForwardingParameters contains forwarding details
type ForwardingParameters struct {
	DestinationInterface string // "ACCESS", "CORE"
	NetworkInstance      string // DNN
	OuterHeaderCreation  *OuterHeaderCreation
}

// OuterHeaderCreation for GTP-U encapsulation
type OuterHeaderCreation struct {
	TEID uint32
	IPv4 string
	IPv6 string
}

// QER represents QoS Enforcement Rule
type QER struct {
	QERID       uint16
	QFI         uint8  // QoS Flow Identifier
	GBRUplink   uint64 // Guaranteed Bit Rate (bps)
	GBRDownlink uint64
	MBRUplink   uint64 // Maximum Bit Rate (bps)
	MBRDownlink uint64
}

// SessionEstablishmentResponse represents PFCP Session Establishment Response
type SessionEstablishmentResponse struct {
	NodeID      string
	SEID        uint64
	Cause       string // "Request accepted"
	UPFTEID     *FTEID // UPF-allocated F-TEID for uplink
	CreatedPDRs []CreatedPDR
}

// CreatedPDR represents a created PDR with UPF-assigned F-TEID
type CreatedPDR struct {
	PDRID uint16
	FTEID *FTEID
}

// SessionModificationRequest represents PFCP Session Modification Request
type SessionModificationRequest struct {
	SEID       uint64
	UpdatePDRs []PDR
	UpdateFARs []FAR
	UpdateQERs []QER
}

// SessionModificationResponse represents PFCP Session Modification Response
type SessionModificationResponse struct {
	SEID  uint64
	Cause string
}

// SessionDeletionRequest represents PFCP Session Deletion Request
type SessionDeletionRequest struct {
	SEID uint64
}

// SessionDeletionResponse represents PFCP Session Deletion Response
type SessionDeletionResponse struct {
	SEID  uint64
	Cause string
}

// EstablishSession sends PFCP Session Establishment Request to UPF
func (c *PFCPClient) EstablishSession(req *SessionEstablishmentRequest) (*SessionEstablishmentResponse, error) {
	c.logger.Info("Sending PFCP Session Establishment Request to UPF",
		zap.String("upf_node_id", c.upfNodeID),
		zap.String("upf_address", c.upfN4Address),
		zap.Uint64("seid", req.SEID),
		zap.String("ue_ip", req.UEIPv4Address),
		zap.String("dnn", req.DNN),
	)

	// TODO: Implement actual PFCP protocol encoding/decoding
	// For now, simulate successful response

	time.Sleep(10 * time.Millisecond) // Simulate network delay

	// Allocate F-TEID for UPF
	upfTEID := c.allocateTEID()

	response := &SessionEstablishmentResponse{
		NodeID: c.upfNodeID,
		SEID:   req.SEID,
		Cause:  "Request accepted",
		UPFTEID: &FTEID{
			TEID: upfTEID,
			IPv4: c.extractIPFromAddress(c.upfN4Address),
		},
		CreatedPDRs: []CreatedPDR{
			{
				PDRID: req.PDRs[0].PDRID,
				FTEID: &FTEID{
					TEID: upfTEID,
					IPv4: c.extractIPFromAddress(c.upfN4Address),
				},
			},
		},
	}

	c.logger.Info("PFCP Session Establishment successful",
		zap.Uint64("seid", response.SEID),
		zap.Uint32("upf_teid", upfTEID),
	)

	return response, nil
}

// ModifySession sends PFCP Session Modification Request to UPF
func (c *PFCPClient) ModifySession(req *SessionModificationRequest) (*SessionModificationResponse, error) {
	c.logger.Info("Sending PFCP Session Modification Request to UPF",
		zap.Uint64("seid", req.SEID),
	)

	// TODO: Implement actual PFCP protocol
	time.Sleep(10 * time.Millisecond)

	response := &SessionModificationResponse{
		SEID:  req.SEID,
		Cause: "Request accepted",
	}

	c.logger.Info("PFCP Session Modification successful",
		zap.Uint64("seid", response.SEID),
	)

	return response, nil
}

// DeleteSession sends PFCP Session Deletion Request to UPF
func (c *PFCPClient) DeleteSession(req *SessionDeletionRequest) (*SessionDeletionResponse, error) {
	c.logger.Info("Sending PFCP Session Deletion Request to UPF",
		zap.Uint64("seid", req.SEID),
	)

	// TODO: Implement actual PFCP protocol
	time.Sleep(10 * time.Millisecond)

	response := &SessionDeletionResponse{
		SEID:  req.SEID,
		Cause: "Request accepted",
	}

	c.logger.Info("PFCP Session Deletion successful",
		zap.Uint64("seid", response.SEID),
	)

	return response, nil
}

// allocateTEID allocates a new F-TEID
func (c *PFCPClient) allocateTEID() uint32 {
	c.teidCounter++
	return c.teidCounter
}

// extractIPFromAddress extracts IP from "IP:PORT" format
func (c *PFCPClient) extractIPFromAddress(addr string) string {
	// Simple extraction - assumes "IP:PORT" format
	for i := 0; i < len(addr); i++ {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// AssociatePFCPSession establishes PFCP association with UPF
func (c *PFCPClient) AssociatePFCPSession() error {
	c.logger.Info("Establishing PFCP association with UPF",
		zap.String("upf_node_id", c.upfNodeID),
		zap.String("upf_address", c.upfN4Address),
	)

	// TODO: Send PFCP Association Setup Request
	// For now, simulate successful association

	time.Sleep(20 * time.Millisecond)

	c.logger.Info("PFCP association established successfully")

	return nil
}

// SendHeartbeat sends PFCP Heartbeat Request to UPF
func (c *PFCPClient) SendHeartbeat() error {
	c.logger.Debug("Sending PFCP Heartbeat to UPF",
		zap.String("upf_node_id", c.upfNodeID),
	)

	// TODO: Implement PFCP Heartbeat Request/Response

	return nil
}

// GenerateSEID generates a unique Session Endpoint Identifier
func GenerateSEID(supi string, pduSessionID uint8) uint64 {
	// Simple SEID generation - in production, use more robust method
	hash := uint64(0)
	for i := 0; i < len(supi); i++ {
		hash = hash*31 + uint64(supi[i])
	}
	return (hash << 8) | uint64(pduSessionID)
}

// ValidatePFCPResponse validates PFCP response
func ValidatePFCPResponse(cause string) error {
	if cause != "Request accepted" {
		return fmt.Errorf("PFCP request failed: %s", cause)
	}
	return nil
}
