/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package deployment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/samber/lo"
)

// ErrorLine is one node of the nested error detail tree ARM returns for a
// failed deployment.
type ErrorLine struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Inner   []*ErrorLine `json:"details"`
}

// Error carries the provisioning state and the full detail tree of a failed
// deployment. Every nested message is preserved for verbatim printing.
type Error struct {
	State   string
	Details *ErrorLine
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "deployment failed with state %s", e.State)
	writeErrorLine(&sb, e.Details, 1)
	return sb.String()
}

func writeErrorLine(sb *strings.Builder, line *ErrorLine, depth int) {
	if line == nil {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("  ", depth))
	if line.Code != "" {
		fmt.Fprintf(sb, "%s: ", line.Code)
	}
	sb.WriteString(line.Message)
	for _, inner := range line.Inner {
		writeErrorLine(sb, inner, depth+1)
	}
}

// newDeploymentError converts the error surfaced by the deployment poll into
// an *Error when it carries an ARM error body, and returns it unchanged
// otherwise.
func newDeploymentError(err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	line := parseResponseError(respErr)
	if line == nil {
		return err
	}
	return &Error{State: string(armresources.ProvisioningStateFailed), Details: line}
}

// parseResponseError decodes the {"error": {...}} envelope from the raw HTTP
// body. ARM sometimes skips the envelope and puts code/message at top level.
func parseResponseError(respErr *azcore.ResponseError) *ErrorLine {
	if respErr.RawResponse == nil || respErr.RawResponse.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(respErr.RawResponse.Body)
	if err != nil {
		return nil
	}

	var envelope struct {
		Error *ErrorLine `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error
	}

	var line ErrorLine
	if err := json.Unmarshal(raw, &line); err == nil && line.Message != "" {
		return &line
	}
	return &ErrorLine{Code: respErr.ErrorCode, Message: string(raw)}
}

// errorLineFromARM maps the typed detail tree a terminal deployment carries in
// its properties.
func errorLineFromARM(resp *armresources.ErrorResponse) *ErrorLine {
	if resp == nil {
		return nil
	}
	line := &ErrorLine{
		Code:    lo.FromPtr(resp.Code),
		Message: lo.FromPtr(resp.Message),
	}
	for _, detail := range resp.Details {
		if inner := errorLineFromARM(detail); inner != nil {
			line.Inner = append(line.Inner, inner)
		}
	}
	return line
}
