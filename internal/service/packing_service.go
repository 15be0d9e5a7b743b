package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

// Destination is a quality-center shipping address printed on packing slips.
type Destination struct {
	Name    string
	Address string
	Phone   string
}

// RoutingRule sends model names with the prefix to one quality center.
type RoutingRule struct {
	Prefix      string
	Destination Destination
}

// RoutingTable decides which quality center a returned appliance ships to,
// keyed off the model-name prefix. Rules are checked in configured order so
// overlapping prefixes resolve the same way every time; anything unmatched
// goes to Default.
type RoutingTable struct {
	Default Destination
	Rules   []RoutingRule
}

// Route picks the destination for a model name.
func (t RoutingTable) Route(modelName string) Destination {
	for _, rule := range t.Rules {
		if strings.HasPrefix(modelName, rule.Prefix) {
			return rule.Destination
		}
	}
	return t.Default
}

const packingSlipTemplate = `<!doctype html>
<html lang="ko">
<head>
  <meta charset="utf-8" />
  <title>회수 송장 {{.Recovery.CustomerNumber}}</title>
  <style>
    body { font-family: "Malgun Gothic", sans-serif; margin: 0; padding: 24px; color: #111; }
    .slip { border: 2px solid #111; padding: 24px; max-width: 700px; margin: 0 auto; }
    .slip h1 { font-size: 20px; margin: 0 0 16px; border-bottom: 1px solid #111; padding-bottom: 8px; }
    .row { display: flex; margin-bottom: 8px; }
    .label { width: 120px; font-weight: 700; }
    .section { margin-top: 20px; }
    @media print {
      body { padding: 0; }
      .slip { page-break-after: always; border-width: 1px; }
    }
  </style>
</head>
<body>
  <div class="slip">
    <h1>제품 회수 송장</h1>
    <div class="row"><div class="label">고객번호</div><div>{{.Recovery.CustomerNumber}}</div></div>
    <div class="row"><div class="label">모델명</div><div>{{.Recovery.ModelName}}</div></div>
    <div class="row"><div class="label">고객명</div><div>{{.Recovery.CustomerName}}</div></div>
    <div class="row"><div class="label">설치주소</div><div>{{.Recovery.CustomerAddress}}</div></div>
    <div class="section">
      <div class="row"><div class="label">보내는 곳</div><div>{{.SenderName}}<br/>{{.SenderAddress}}</div></div>
    </div>
    <div class="section">
      <div class="row"><div class="label">받는 곳</div><div>{{.Destination.Name}}<br/>{{.Destination.Address}}<br/>{{.Destination.Phone}}</div></div>
    </div>
    {{if .Recovery.TrackingNumber}}
    <div class="section">
      <div class="row"><div class="label">택배사</div><div>{{.Recovery.Carrier}}</div></div>
      <div class="row"><div class="label">송장번호</div><div>{{.Recovery.TrackingNumber}}</div></div>
    </div>
    {{end}}
  </div>
</body>
</html>`

// PackingService renders print-media packing slips for product recoveries.
type PackingService interface {
	RenderSlip(ctx context.Context, actor Actor, id string) ([]byte, error)
}

type packingService struct {
	productRepo repository.ProductRecoveryRepository
	branchRepo  repository.BranchRepository
	routing     RoutingTable
	tmpl        *template.Template
}

func NewPackingService(productRepo repository.ProductRecoveryRepository, branchRepo repository.BranchRepository, routing RoutingTable) PackingService {
	return &packingService{
		productRepo: productRepo,
		branchRepo:  branchRepo,
		routing:     routing,
		tmpl:        template.Must(template.New("packing_slip").Parse(packingSlipTemplate)),
	}
}

func (s *packingService) RenderSlip(ctx context.Context, actor Actor, id string) ([]byte, error) {
	recoveryID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	recovery, err := s.productRepo.FindByID(ctx, recoveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("record not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !actor.IsAdmin() && recovery.BranchCode != actor.BranchCode {
		return nil, ErrBranchMismatch
	}

	senderName := recovery.BranchCode
	senderAddress := ""
	if branch, err := s.branchRepo.FindByCode(ctx, recovery.BranchCode); err == nil {
		senderName = branch.Name
		for _, addr := range branch.Addresses {
			if addr.AddressType == model.AddressTypeReturn {
				senderAddress = addr.FullAddress
				if addr.IsDefault {
					break
				}
			}
		}
	}

	data := map[string]interface{}{
		"Recovery":      recovery,
		"SenderName":    senderName,
		"SenderAddress": senderAddress,
		"Destination":   s.routing.Route(recovery.ModelName),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render packing slip: %w", err)
	}
	return buf.Bytes(), nil
}
