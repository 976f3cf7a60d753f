// Package stepflow decides which authentication method runs next for a
// multi-factor operation.
//
// The step transition table is a set of StepDefinition rows configured per
// operation name. Each row says: when method X finished with result R, run
// method Y with priority P. Resolution picks the lowest-priority enabled
// candidate; user preferences can disable individual methods.
//
// # Basic Usage
//
//	repo := stepflow.NewInMemStepDefinitionRepository([]stepflow.StepDefinition{
//		{OperationName: "payment", RequestAuthMethod: stepflow.MethodInit,
//			RequestResult: stepflow.ResultContinue, ResponseAuthMethod: stepflow.MethodSMSKey},
//	})
//	service := stepflow.NewService(repo, prefsService)
//
//	decision, err := service.ResolveNextStep(ctx, "payment", "", stepflow.ResultContinue, userID)
//	if decision.Result == stepflow.ResultContinue {
//		// run decision.Method
//	}
//
// The service holds no per-operation state: identical inputs always produce
// identical decisions, so resolutions can be replayed for audit.
package stepflow
