package service

import (
	"context"

	"github.com/Freeeeeet/training_scheduler/internal/model"
)

// BookingReader чтение бронирований для обхода цепочки продлений
type BookingReader interface {
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	GetPredecessor(ctx context.Context, bookingID int64) (*model.Booking, error)
}

// ChainResolver обходит цепочку продлений по successor_id
type ChainResolver struct {
	store BookingReader
}

func NewChainResolver(store BookingReader) *ChainResolver {
	return &ChainResolver{store: store}
}

// ResolveChain возвращает бронирования от bookingID до последнего в цепочке включительно
func (r *ChainResolver) ResolveChain(ctx context.Context, bookingID int64) ([]*model.Booking, error) {
	booking, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, storeError("get booking", err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}

	chain := []*model.Booking{booking}
	visited := map[int64]struct{}{booking.ID: {}}

	for booking.SuccessorID != nil {
		nextID := *booking.SuccessorID
		if _, ok := visited[nextID]; ok {
			return nil, &ChainIntegrityError{StartID: bookingID, BookingID: nextID, Reason: "successor cycle"}
		}
		visited[nextID] = struct{}{}

		next, err := r.store.GetBooking(ctx, nextID)
		if err != nil {
			return nil, storeError("get booking", err)
		}
		if next == nil {
			return nil, &ChainIntegrityError{StartID: bookingID, BookingID: nextID, Reason: "missing successor"}
		}

		chain = append(chain, next)
		booking = next
	}

	return chain, nil
}

// FindTerminal возвращает последнее бронирование цепочки
func (r *ChainResolver) FindTerminal(ctx context.Context, bookingID int64) (*model.Booking, error) {
	chain, err := r.ResolveChain(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return chain[len(chain)-1], nil
}

// ResolveFullChain возвращает всю цепочку от первой покупки до последнего продления
func (r *ChainResolver) ResolveFullChain(ctx context.Context, bookingID int64) ([]*model.Booking, error) {
	booking, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, storeError("get booking", err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}

	root := booking
	visited := map[int64]struct{}{booking.ID: {}}
	for {
		prev, err := r.store.GetPredecessor(ctx, root.ID)
		if err != nil {
			return nil, storeError("get predecessor", err)
		}
		if prev == nil {
			break
		}
		if _, ok := visited[prev.ID]; ok {
			return nil, &ChainIntegrityError{StartID: bookingID, BookingID: prev.ID, Reason: "predecessor cycle"}
		}
		visited[prev.ID] = struct{}{}
		root = prev
	}

	return r.ResolveChain(ctx, root.ID)
}
