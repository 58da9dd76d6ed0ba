package facility

// SeedFacilities returns the reference directory loaded by `seed facilities`.
func SeedFacilities() []*Facility {
	return []*Facility{
		{Name: "Seoul National Rehabilitation Hospital", FacilityType: "rehabilitation", Address: "58 Samgaksan-ro, Gangbuk-gu", Region: "Seoul", Phone: "02-901-1700", TotalBeds: 300, AvailableBeds: 12, MonthlyCost: 3_200_000, Specialties: []string{"stroke", "spinal_cord_injury", "brain_injury"}},
		{Name: "Bundang Recovery Rehabilitation Center", FacilityType: "rehabilitation", Address: "20 Seohyeon-ro, Bundang-gu, Seongnam", Region: "Gyeonggi", Phone: "031-780-5000", TotalBeds: 180, AvailableBeds: 0, MonthlyCost: 2_900_000, Specialties: []string{"stroke", "orthopedic"}},
		{Name: "Hangang Nursing Hospital", FacilityType: "nursing_hospital", Address: "112 Yeouido-ro, Yeongdeungpo-gu", Region: "Seoul", Phone: "02-780-3300", TotalBeds: 220, AvailableBeds: 25, MonthlyCost: 1_800_000, Specialties: []string{"dementia", "stroke"}},
		{Name: "Suwon Green Nursing Hospital", FacilityType: "nursing_hospital", Address: "45 Gwanggyo-ro, Yeongtong-gu, Suwon", Region: "Gyeonggi", Phone: "031-210-8800", TotalBeds: 160, AvailableBeds: 8, MonthlyCost: 1_600_000, Specialties: []string{"palliative", "dementia"}},
		{Name: "Haeundae Seaside Nursing Hospital", FacilityType: "nursing_hospital", Address: "8 Haeundaehaebyeon-ro, Haeundae-gu", Region: "Busan", Phone: "051-740-2200", TotalBeds: 140, AvailableBeds: 3, MonthlyCost: 1_700_000, Specialties: []string{"stroke", "orthopedic"}},
		{Name: "Eunpyeong Silver Care Home", FacilityType: "nursing_home", Address: "31 Jingwan-ro, Eunpyeong-gu", Region: "Seoul", Phone: "02-350-4100", TotalBeds: 90, AvailableBeds: 4, MonthlyCost: 1_500_000, Specialties: []string{"dementia"}},
		{Name: "Daejeon Hanbit Nursing Home", FacilityType: "nursing_home", Address: "77 Dunsan-ro, Seo-gu", Region: "Daejeon", Phone: "042-600-1500", TotalBeds: 70, AvailableBeds: 0, MonthlyCost: 1_350_000, Specialties: []string{"dementia", "palliative"}},
		{Name: "Mapo Home Visit Care Center", FacilityType: "home", Address: "14 World Cup-ro, Mapo-gu", Region: "Seoul", Phone: "02-3153-9000", TotalBeds: 0, AvailableBeds: 0, MonthlyCost: 500_000, Specialties: []string{"home_nursing", "bathing"}},
	}
}
