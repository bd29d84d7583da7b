package rfc

import (
	"strings"

	"github.com/sap/gorfc/gorfc"

	"abapcheck/internal/config"
)

// sdkDialer opens sessions through the SAP NetWeaver RFC SDK (gorfc). It is
// the only file that touches the SDK; everything else sees Session/Dialer.
type sdkDialer struct{}

func (sdkDialer) Dial(cfg config.SAPConfig) (Session, error) {
	conn, err := gorfc.ConnectionFromParams(gorfc.ConnectionParameters{
		"ashost":    cfg.Host,
		"sysnr":     cfg.SysNr,
		"client":    cfg.Client,
		"user":      cfg.User,
		"passwd":    cfg.Password,
		"saprouter": cfg.SAPRouter,
		"lang":      "EN",
	})
	if err != nil {
		return nil, classifySDKError(err)
	}
	return &sdkSession{conn: conn}, nil
}

type sdkSession struct {
	conn *gorfc.Connection
}

func (s *sdkSession) Call(function string, params map[string]any) (map[string]any, error) {
	result, err := s.conn.Call(function, params)
	if err != nil {
		return nil, classifySDKError(err)
	}
	return result, nil
}

func (s *sdkSession) Close() error {
	return s.conn.Close()
}

// classifySDKError maps an SDK error onto the closed Fault taxonomy using the
// RFC return code name carried in the error info.
func classifySDKError(err error) error {
	rfcErr, ok := err.(*gorfc.RfcError)
	if !ok {
		return &Fault{Class: FaultOther, Message: err.Error()}
	}

	info := rfcErr.ErrorInfo
	fault := &Fault{Key: info.Key, Message: info.Message}
	if fault.Message == "" {
		fault.Message = rfcErr.Description
	}

	switch {
	case strings.Contains(info.Code, "LOGON_FAILURE"),
		strings.Contains(info.Code, "AUTHORIZATION_FAILURE"):
		fault.Class = FaultLogon
	case strings.Contains(info.Code, "COMMUNICATION_FAILURE"):
		fault.Class = FaultCommunication
	case strings.Contains(info.Code, "ABAP_MESSAGE"),
		strings.Contains(info.Code, "ABAP_EXCEPTION"):
		fault.Class = FaultApplication
	case strings.Contains(info.Code, "ABAP_RUNTIME_FAILURE"),
		strings.Contains(info.Code, "EXTERNAL_RUNTIME_FAILURE"):
		fault.Class = FaultRuntime
	default:
		fault.Class = FaultOther
	}
	return fault
}
