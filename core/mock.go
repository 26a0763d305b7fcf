package core

const mockMainTF = `# Configure the Azure Provider
terraform {
  required_providers {
    azurerm = {
      source  = "hashicorp/azurerm"
      version = "~> 3.0"
    }
  }
}

provider "azurerm" {
  features {}
}

resource "azurerm_resource_group" "main" {
  name     = "rg-infragenie-demo"
  location = "East US"

  tags = {
    Environment = "Development"
    Project     = "InfraGenie"
    CreatedBy   = "Terraform"
  }
}

resource "azurerm_virtual_network" "main" {
  name                = "vnet-infragenie"
  address_space       = ["10.0.0.0/16"]
  location            = azurerm_resource_group.main.location
  resource_group_name = azurerm_resource_group.main.name

  tags = {
    Environment = "Development"
    Project     = "InfraGenie"
  }
}

resource "azurerm_subnet" "internal" {
  name                 = "subnet-internal"
  resource_group_name  = azurerm_resource_group.main.name
  virtual_network_name = azurerm_virtual_network.main.name
  address_prefixes     = ["10.0.2.0/24"]
}
`

const mockVariablesTF = `variable "resource_group_location" {
  description = "Location of the resource group."
  type        = string
  default     = "East US"
}

variable "resource_group_name_prefix" {
  description = "Prefix combined with a random ID so the resource group name is unique."
  type        = string
  default     = "rg"
}

variable "environment" {
  description = "Environment name"
  type        = string
  default     = "Development"

  validation {
    condition     = contains(["Development", "Staging", "Production"], var.environment)
    error_message = "Environment must be Development, Staging, or Production."
  }
}

variable "project_name" {
  description = "Name of the project"
  type        = string
  default     = "InfraGenie"
}

variable "tags" {
  description = "Tags assigned to every resource"
  type        = map(string)
  default = {
    Environment = "Development"
    Project     = "InfraGenie"
    CreatedBy   = "Terraform"
  }
}
`

const mockOutputsTF = `output "resource_group_name" {
  description = "Name of the resource group"
  value       = azurerm_resource_group.main.name
}

output "resource_group_location" {
  description = "Location of the resource group"
  value       = azurerm_resource_group.main.location
}

output "virtual_network_id" {
  description = "ID of the virtual network"
  value       = azurerm_virtual_network.main.id
}

output "subnet_id" {
  description = "ID of the subnet"
  value       = azurerm_subnet.internal.id
}
`

const mockTFVars = `resource_group_location    = "East US"
resource_group_name_prefix = "rg-infragenie"
environment                = "Development"
project_name               = "InfraGenie Demo"

tags = {
  Environment = "Development"
  Project     = "InfraGenie"
  CreatedBy   = "Terraform"
  Owner       = "DevOps Team"
  CostCenter  = "Engineering"
}
`

// MockResult returns the built-in Azure fixture used by --mock and the
// development backend.
func MockResult() *GenerationResult {
	r := &GenerationResult{
		Version:       "1.0.0",
		Timestamp:     "2024-01-15T10:30:00Z",
		RequestID:     "req_123456789",
		Status:        "success",
		CloudProvider: string(Azure),
	}
	r.Infrastructure.Set("main.tf", FileEntry{
		Content:      mockMainTF,
		Purpose:      "Main Terraform configuration file",
		Dependencies: []string{},
	})
	r.Infrastructure.Set("variables.tf", FileEntry{
		Content:      mockVariablesTF,
		Purpose:      "Variable definitions for the Terraform configuration",
		Dependencies: []string{},
	})
	r.Infrastructure.Set("outputs.tf", FileEntry{
		Content:      mockOutputsTF,
		Purpose:      "Output definitions for the Terraform configuration",
		Dependencies: []string{"main.tf"},
	})
	r.Infrastructure.Set("terraform.tfvars", FileEntry{
		Content:      mockTFVars,
		Purpose:      "Variable values for the Terraform configuration",
		Dependencies: []string{"variables.tf"},
	})
	return r
}
