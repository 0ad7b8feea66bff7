package extension

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/viant/roundtrip/model/types"
	"github.com/viant/x"
)

// DataTypeIniter is implemented by components registering their own types.
type DataTypeIniter interface {
	InitTypes(types *Types)
}

// Actions is a registry of named components
type Actions struct {
	types    *Types
	services map[string]types.Service
	mux      sync.RWMutex
}

func (s *Actions) Types() *Types {
	return s.types
}

// Lookup returns a service by name
func (s *Actions) Lookup(name string) types.Service {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.services[name]
}

// Register registers a service
func (s *Actions) Register(service types.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if typer, ok := service.(DataTypeIniter); ok {
		typer.InitTypes(s.types)
	}
	s.services[service.Name()] = service
}

// Invoke runs service.method with a new input populated by init and
// returns the method output.
func (s *Actions) Invoke(ctx context.Context, service, method string, init func(input interface{}) error) (interface{}, error) {
	srv := s.Lookup(service)
	if srv == nil {
		return nil, fmt.Errorf("service %v not found", service)
	}
	signature := srv.Methods().Lookup(method)
	if signature == nil {
		return nil, types.NewMethodNotFoundError(method)
	}
	executable, err := srv.Method(method)
	if err != nil {
		return nil, err
	}
	input := newValue(signature.Input)
	if init != nil {
		if err = init(input); err != nil {
			return nil, err
		}
	}
	output := newValue(signature.Output)
	if err = executable(ctx, input, output); err != nil {
		return output, err
	}
	return output, nil
}

func newValue(rType reflect.Type) interface{} {
	if rType == nil {
		return nil
	}
	if rType.Kind() == reflect.Ptr {
		return reflect.New(rType.Elem()).Interface()
	}
	return reflect.New(rType).Interface()
}

// NewActions creates a new action service
func NewActions(goTypes ...*x.Type) *Actions {
	ret := &Actions{
		types:    NewTypes(),
		services: make(map[string]types.Service),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
