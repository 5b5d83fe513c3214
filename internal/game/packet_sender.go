package game

import (
	"fmt"
	"log/slog"

	"github.com/frikadellen/baf/internal/baferr"
	"github.com/frikadellen/baf/internal/packet"
)

type ProcessSender interface {
	SendPacket([]byte) error
}

type PacketSender struct {
	process ProcessSender
	logger  *slog.Logger
}

func NewPacketSender(process ProcessSender, logger *slog.Logger) *PacketSender {
	return &PacketSender{
		process: process,
		logger:  logger,
	}
}

// SendPacket sends an encoded packet. Every failure is reported as a transport failure.
func (ps *PacketSender) SendPacket(p packet.Packet) error {
	if err := ps.process.SendPacket(p.GetPayload()); err != nil {
		return fmt.Errorf("%w: failed to send %s packet: %v", baferr.ErrTransport, p.Type(), err)
	}
	return nil
}

func (ps *PacketSender) SendChat(message string) error {
	ps.logger.Debug("Sending chat", slog.String("message", message))
	return ps.SendPacket(packet.NewChatCommand(message))
}

// ClickSlot clicks a slot of the given session, consuming one value of its action counter.
func (ps *PacketSender) ClickSlot(session *WindowSession, slot, itemID int) (int, error) {
	action := session.NextAction()
	ps.logger.Debug("Clicking slot",
		slog.Int("window", session.ID),
		slog.Int("slot", slot),
		slog.Int("action", action),
	)
	return action, ps.SendPacket(packet.NewClickSlot(session.ID, slot, action, itemID))
}

// LeftClick is the plain click used in bazaar menus.
func (ps *PacketSender) LeftClick(session *WindowSession, slot int) (int, error) {
	action := session.NextAction()
	ps.logger.Debug("Left clicking slot",
		slog.Int("window", session.ID),
		slog.Int("slot", slot),
		slog.Int("action", action),
	)
	return action, ps.SendPacket(packet.NewLeftClick(session.ID, slot, action))
}

func (ps *PacketSender) UpdateSign(sign SignOpened, value string) error {
	ps.logger.Debug("Writing sign", slog.String("value", value))
	return ps.SendPacket(packet.NewUpdateSign(sign.X, sign.Y, sign.Z, value))
}

func (ps *PacketSender) CloseWindow(windowID int) error {
	return ps.SendPacket(packet.NewCloseWindow(windowID))
}
