package service

import (
	"context"
	"strings"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/objects/contact"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/registrar/models"
)

// PollService reads and acknowledges the registry's service messages.
type PollService struct {
	exec *Executor
}

func NewPollService(exec *Executor) *PollService {
	return &PollService{exec: exec}
}

// Request returns the oldest queued message. An empty queue yields a
// message with a zero count and no ID.
func (s *PollService) Request(ctx context.Context) (*models.PollMessage, error) {
	cmd := &protocol.Command{Verb: protocol.VerbPoll, Op: protocol.PollRequest}
	resp, err := s.exec.exec(ctx, call{objType: ObjectPoll, action: protocol.PollRequest, cmd: cmd})
	if err != nil {
		return nil, err
	}
	out := &models.PollMessage{Transaction: transaction(resp)}
	if q := resp.MsgQ; q != nil {
		out.ID, out.Count, out.QueuedAt, out.Message = q.ID, q.Count, q.QDate, q.Msg
	}
	if len(resp.ResData) > 0 {
		out.Kind, out.Data = pollPayload(resp.ResData[0])
	}
	return out, nil
}

// Ack removes a message from the queue and reports what remains.
func (s *PollService) Ack(ctx context.Context, id string) (*models.PollMessage, error) {
	id = strings.TrimSpace(id)
	if err := required("id", id); err != nil {
		return nil, err
	}
	cmd := &protocol.Command{Verb: protocol.VerbPoll, Op: protocol.PollAck, MsgID: id}
	resp, err := s.exec.exec(ctx, call{objType: ObjectPoll, action: protocol.PollAck, objectID: id, cmd: cmd})
	if err != nil {
		return nil, err
	}
	out := &models.PollMessage{Transaction: transaction(resp)}
	if q := resp.MsgQ; q != nil {
		out.ID, out.Count = q.ID, q.Count
	}
	return out, nil
}

func pollPayload(c codec.Component) (string, any) {
	switch d := c.(type) {
	case *domain.TransferData:
		return "domain:transfer", models.TransferStatus{
			Name:   d.Name,
			Status: d.TrStatus,
			ReID:   d.ReID,
			ReDate: d.ReDate,
			AcID:   d.AcID,
			AcDate: d.AcDate,
			ExDate: d.ExDate,
		}
	case *domain.PendingActionData:
		return "domain:pending_action", map[string]any{
			"name":      d.Name,
			"succeeded": d.PaResult,
			"cltrid":    d.PaClTRID,
			"svtrid":    d.PaSvTRID,
			"date":      d.PaDate,
		}
	case *contact.TransferData:
		return "contact:transfer", map[string]any{
			"id":           d.ID,
			"status":       d.TrStatus,
			"requested_by": d.ReID,
			"requested_at": d.ReDate,
			"action_by":    d.AcID,
			"action_at":    d.AcDate,
		}
	case *contact.PendingActionData:
		return "contact:pending_action", map[string]any{
			"id":        d.ID,
			"succeeded": d.PaResult,
			"cltrid":    d.PaClTRID,
			"svtrid":    d.PaSvTRID,
			"date":      d.PaDate,
		}
	case *codec.Raw:
		return "raw:" + d.Local, map[string]any{
			"namespace": d.URI,
			"xml":       d.String(),
		}
	}
	return "unknown", nil
}
