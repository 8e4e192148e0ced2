package panel

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/protocol"
)

// InputSurface exposes the current value of each editable field
type InputSurface interface {
	Value(field protocol.Field) string
}

// Sender delivers one request to the device
type Sender interface {
	Send(req protocol.Request) error
}

// Values is an InputSurface backed by a map, used for one-shot commands and
// for snapshots of interactive inputs.
type Values map[protocol.Field]string

// Value returns the field value, or "" when unset
func (v Values) Value(field protocol.Field) string {
	return v[field]
}

// Panel wires user actions to outbound requests
type Panel struct {
	inputs   InputSurface
	renderer protocol.Renderer
	sender   Sender
}

// New creates a panel
func New(inputs InputSurface, renderer protocol.Renderer, sender Sender) *Panel {
	return &Panel{
		inputs:   inputs,
		renderer: renderer,
		sender:   sender,
	}
}

// ScanNetworks asks the device for a network scan
func (p *Panel) ScanNetworks() error {
	return p.send(protocol.ScanWiFiNetworks{})
}

// SubmitCredentials sends the ssid and password fields as entered
func (p *Panel) SubmitCredentials() error {
	return p.send(protocol.SetWiFiCredentials{
		SSID:     p.inputs.Value(protocol.FieldSSID),
		Password: p.inputs.Value(protocol.FieldPassword),
	})
}

// SubmitDeviceName sends the name field as entered
func (p *Panel) SubmitDeviceName() error {
	return p.send(protocol.SetDeviceName{
		Name: p.inputs.Value(protocol.FieldDeviceName),
	})
}

// SubmitAdvanced validates the static IP fields and sends them only when all
// three are valid. On failure the returned error is a protocol.ValidationErrors.
func (p *Panel) SubmitAdvanced() error {
	req, err := protocol.NewSetWiFiAdvanced(
		p.inputs.Value(protocol.FieldLocalIP),
		p.inputs.Value(protocol.FieldGateway),
		p.inputs.Value(protocol.FieldSubnet),
	)
	if err != nil {
		fields := protocol.InvalidFields(err)
		for _, f := range fields {
			p.renderer.FlagInvalidField(f)
		}
		p.renderer.RenderStatus(invalidMessage(fields), protocol.SeverityError)
		logging.Debug("Static IP settings rejected locally", zap.Error(err))
		return err
	}
	return p.send(req)
}

// Reboot asks the device to restart. The device drops the connection.
func (p *Panel) Reboot() error {
	return p.send(protocol.RebootDevice{})
}

func (p *Panel) send(req protocol.Request) error {
	if err := p.sender.Send(req); err != nil {
		p.renderer.RenderStatus(fmt.Sprintf("Failed to send %s: %v", req.EventName(), err), protocol.SeverityError)
		return err
	}
	logging.Debug("Request sent", zap.String("event", req.EventName()))
	return nil
}

func invalidMessage(fields []protocol.Field) string {
	if len(fields) == 1 {
		return fmt.Sprintf("Invalid %s", fields[0].Label())
	}
	msg := "Invalid "
	for i, f := range fields {
		switch {
		case i == 0:
		case i == len(fields)-1:
			msg += " and "
		default:
			msg += ", "
		}
		msg += f.Label()
	}
	return msg
}
