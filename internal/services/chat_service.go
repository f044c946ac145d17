package services

import (
	"context"
	"log"

	"tripchat/internal/models/itinerary_models"
	"tripchat/internal/models/request_models"
	"tripchat/internal/models/response_models"
)

// chatNode identifies one state of the modification pipeline.
type chatNode int

const (
	nodeClassify chatNode = iota
	nodeMutate
	nodeCascade
	nodeRespond
	nodeDone
)

func (n chatNode) String() string {
	switch n {
	case nodeClassify:
		return "classify"
	case nodeMutate:
		return "mutate"
	case nodeCascade:
		return "cascade"
	case nodeRespond:
		return "respond"
	default:
		return "done"
	}
}

type ChatServiceInterface interface {
	// ProcessChat runs one user turn through the state machine and returns
	// the terminal response. Each call is independent; no state is shared
	// between concurrent requests.
	ProcessChat(ctx context.Context, req request_models.ChatModifyRequest, history []itinerary_models.Message) response_models.ChatModifyResponse
}

type ChatService struct {
	intents   IntentServiceInterface
	mutations MutationServiceInterface
	cascades  CascadeServiceInterface
	responses RespondServiceInterface
}

func NewChatService(
	intents IntentServiceInterface,
	mutations MutationServiceInterface,
	cascades CascadeServiceInterface,
	responses RespondServiceInterface,
) ChatServiceInterface {
	return &ChatService{
		intents:   intents,
		mutations: mutations,
		cascades:  cascades,
		responses: responses,
	}
}

// routeAfterClassify short-circuits to respond on errors, policy outcomes and
// general chat; only a cleanly extracted modification reaches mutate.
func routeAfterClassify(state ChatState) chatNode {
	if state.Err != "" || state.Status != "" {
		return nodeRespond
	}
	if state.IntentType == IntentTypeGeneralChat {
		return nodeRespond
	}
	return nodeMutate
}

func routeAfterMutate(state ChatState) chatNode {
	if state.Err != "" || state.Status != "" {
		return nodeRespond
	}
	return nodeCascade
}

func (s *ChatService) run(ctx context.Context, state ChatState) ChatState {
	node := nodeClassify
	for node != nodeDone {
		log.Printf("Chat pipeline node: %s", node)
		switch node {
		case nodeClassify:
			state = s.intents.Classify(ctx, state)
			node = routeAfterClassify(state)
		case nodeMutate:
			state = s.mutations.Mutate(ctx, state)
			node = routeAfterMutate(state)
		case nodeCascade:
			state = s.cascades.Cascade(state)
			node = nodeRespond
		case nodeRespond:
			state = s.responses.Respond(ctx, state)
			node = nodeDone
		}
	}
	return state
}

func (s *ChatService) ProcessChat(ctx context.Context, req request_models.ChatModifyRequest, history []itinerary_models.Message) response_models.ChatModifyResponse {
	state := ChatState{
		CurrentItinerary:   req.CurrentItinerary,
		UserQuery:          req.UserQuery,
		SessionHistory:     history,
		VisitTimeProposals: req.VisitTimeProposals,
	}
	state = s.run(ctx, state)

	resp := response_models.ChatModifyResponse{
		Status:           state.Status,
		Message:          state.Message,
		DiffKeys:         state.DiffKeys,
		Warnings:         state.Warnings,
		SuggestedKeyword: state.SuggestedKeyword,
	}
	if state.Status == itinerary_models.StatusSuccess && state.ModifiedItinerary != nil {
		resp.ModifiedItinerary = state.ModifiedItinerary
	}
	return resp
}
