/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	catalogerrors "github.com/suparena/bookcatalog/errors"
)

const codeValidation = "ValidationException"

// classify turns an SDK failure into StoreUnavailable, keeping the service
// error code when one is present. A ValidationException means the request
// itself was rejected and maps to a ValidationError instead.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	code := ""
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
		if code == codeValidation {
			return catalogerrors.NewValidationError("request", apiErr.ErrorMessage())
		}
	}
	return catalogerrors.NewStoreUnavailableError(operation, code, err)
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// isThrottled reports capacity errors worth surfacing distinctly in logs.
func isThrottled(err error) bool {
	var ptee *types.ProvisionedThroughputExceededException
	var rle *types.RequestLimitExceeded
	var ise *types.InternalServerError
	return errors.As(err, &ptee) || errors.As(err, &rle) || errors.As(err, &ise)
}
