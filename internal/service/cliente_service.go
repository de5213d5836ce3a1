package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"venpos/internal/dto"
	"venpos/internal/model"
	"venpos/internal/repository"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, busqueda string) ([]dto.ClienteResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	// Credito devuelve la vista que consume el checkout. Disponible = límite −
	// saldo, sin recortar: un valor negativo señala sobregiro y bloquea
	// cualquier venta fiada.
	Credito(ctx context.Context, id uuid.UUID) (*dto.CreditoResponse, error)
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:        req.Nombre,
		Documento:     req.Documento,
		Telefono:      req.Telefono,
		Email:         req.Email,
		LimiteCredito: req.LimiteCredito,
		Activo:        true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, busqueda string) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, busqueda)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		resp[i] = clienteToResponse(&clientes[i])
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	if req.Nombre != "" {
		c.Nombre = req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.LimiteCredito != nil {
		c.LimiteCredito = *req.LimiteCredito
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Credito(ctx context.Context, id uuid.UUID) (*dto.CreditoResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	return &dto.CreditoResponse{
		ClienteID:     c.ID.String(),
		LimiteCredito: c.LimiteCredito,
		Saldo:         c.Saldo,
		Disponible:    c.LimiteCredito.Sub(c.Saldo),
	}, nil
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:            c.ID.String(),
		Nombre:        c.Nombre,
		Documento:     c.Documento,
		Telefono:      c.Telefono,
		Email:         c.Email,
		LimiteCredito: c.LimiteCredito,
		Saldo:         c.Saldo,
		Activo:        c.Activo,
	}
}
