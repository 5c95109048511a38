package repository

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const conditionalCheckFailedReason = "ConditionalCheckFailed"

func isConditionalCheckFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

// cancellationError maps a cancelled transaction to the sentinel of the first
// item whose condition failed. byItem is indexed like TransactItems.
func cancellationError(err error, byItem ...error) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return err
	}
	for i, reason := range tce.CancellationReasons {
		if i >= len(byItem) {
			break
		}
		if aws.ToString(reason.Code) == conditionalCheckFailedReason {
			return byItem[i]
		}
	}
	return err
}
