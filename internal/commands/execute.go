package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add func(AddArgs) (Result, error)
	// Act covers the single-target commands: start, pause, reset, done, rm, pin.
	Act   func(Type, TargetArgs) (Result, error)
	Edit  func(Type, EditArgs) (Result, error)
	Move  func(MoveArgs) (Result, error)
	Find  func(FindArgs) (Result, error)
	Undo  func() (Result, error)
	Clear func() (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeStart, TypePause, TypeReset, TypeDone, TypeRemove, TypePin:
		if handlers.Act == nil {
			return Result{}, missing(string(cmd.Type))
		}
		return handlers.Act(cmd.Type, *cmd.Target)
	case TypePrio, TypeTag, TypeRename, TypeTime:
		if handlers.Edit == nil {
			return Result{}, missing(string(cmd.Type))
		}
		return handlers.Edit(cmd.Type, *cmd.Edit)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, missing("move")
		}
		return handlers.Move(*cmd.Move)
	case TypeFind:
		if handlers.Find == nil {
			return Result{}, missing("find")
		}
		return handlers.Find(*cmd.Find)
	case TypeUndo:
		if handlers.Undo == nil {
			return Result{}, missing("undo")
		}
		return handlers.Undo()
	case TypeClear:
		if handlers.Clear == nil {
			return Result{}, missing("clear")
		}
		return handlers.Clear()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
